package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/talonmd/socialgraph/internal/common"
	"github.com/talonmd/socialgraph/internal/dbx"
	"github.com/talonmd/socialgraph/internal/server/config"
	"github.com/talonmd/socialgraph/internal/server/models"
	followsrepo "github.com/talonmd/socialgraph/internal/server/repositories/follows"
	usersrepo "github.com/talonmd/socialgraph/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- in-memory users repository ---

type fakeUsersRepo struct {
	byUsername map[string]*models.User
	nextID     int

	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byUsername: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byUsername[u.Username]; ok {
		return nil, common.ErrorConflict
	}
	f.nextID++
	u.ID = fmt.Sprintf("u-%d", f.nextID)
	u.CreatedAt = time.Now()
	f.byUsername[u.Username] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byUsername[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// --- in-memory follows repository ---

type fakeFollowsRepo struct {
	edges map[string]*models.Follow

	findErr   error
	insertErr error
	deleteErr error
	listErr   error

	// profile rows by user id, used by the join queries
	users map[string]models.Profile

	findCalls int
}

func newFakeFollowsRepo() *fakeFollowsRepo {
	return &fakeFollowsRepo{
		edges: make(map[string]*models.Follow),
		users: make(map[string]models.Profile),
	}
}

func edgeKey(followedID, authorID string) string {
	return followedID + "|" + authorID
}

func (f *fakeFollowsRepo) Find(ctx context.Context, followedID, authorID string) (*models.Follow, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	e, ok := f.edges[edgeKey(followedID, authorID)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return e, nil
}

func (f *fakeFollowsRepo) Insert(ctx context.Context, followedID, authorID string) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	key := edgeKey(followedID, authorID)
	if _, ok := f.edges[key]; ok {
		return common.ErrorConflict
	}
	f.edges[key] = &models.Follow{FollowedID: followedID, AuthorID: authorID, CreatedAt: time.Now()}
	return nil
}

func (f *fakeFollowsRepo) Delete(ctx context.Context, followedID, authorID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.edges, edgeKey(followedID, authorID))
	return nil
}

func (f *fakeFollowsRepo) CountByFollowed(ctx context.Context, followedID string) (int64, error) {
	if f.listErr != nil {
		return 0, f.listErr
	}
	var n int64
	for _, e := range f.edges {
		if e.FollowedID == followedID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollowsRepo) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	if f.listErr != nil {
		return 0, f.listErr
	}
	var n int64
	for _, e := range f.edges {
		if e.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollowsRepo) FollowersOf(ctx context.Context, followedID string) ([]models.Profile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Profile, 0)
	for _, e := range f.edges {
		if e.FollowedID == followedID {
			out = append(out, f.users[e.AuthorID])
		}
	}
	return out, nil
}

func (f *fakeFollowsRepo) FollowedBy(ctx context.Context, authorID string) ([]models.Profile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Profile, 0)
	for _, e := range f.edges {
		if e.AuthorID == authorID {
			out = append(out, f.users[e.FollowedID])
		}
	}
	return out, nil
}

// --- repository manager over the fakes ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFollowsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), f: newFakeFollowsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Follows(db dbx.DBTX) followsrepo.Repository   { return m.f }

// --- in-memory session store ---

type fakeSessionStore struct {
	tokens map[string]string

	createErr error
	findErr   error
	deleteErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{tokens: make(map[string]string)}
}

func (s *fakeSessionStore) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.tokens[token] = userID
	return nil
}

func (s *fakeSessionStore) Find(ctx context.Context, token string) (string, error) {
	if s.findErr != nil {
		return "", s.findErr
	}
	userID, ok := s.tokens[token]
	if !ok {
		return "", common.ErrorNotFound
	}
	return userID, nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, token string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.tokens, token)
	return nil
}
