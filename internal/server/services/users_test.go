package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/talonmd/socialgraph/internal/common"
	"github.com/talonmd/socialgraph/internal/cryptox"
)

func newUserService(t *testing.T, rm *fakeRepoManager, store *fakeSessionStore) (*UserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	hasher := cryptox.NewBcryptHasher(bcrypt.MinCost)
	return NewUserService(db, rm, hasher, store, testConfig()), mock
}

// expectRegisterTx arms the mock for one Register call that reaches the
// write path: a successful call commits, a rejected or failed one rolls back.
func expectRegisterTx(mock sqlmock.Sqlmock, commits bool) {
	mock.ExpectBegin()
	if commits {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestRegister_ThenLogin_Succeeds(t *testing.T) {
	rm := newFakeRepoManager()
	s, mock := newUserService(t, rm, newFakeSessionStore())
	ctx := context.Background()

	expectRegisterTx(mock, true)
	if err := s.Register(ctx, "alice", "alice@x.com", "correcthorsebattery"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("register must run in a transaction: %v", err)
	}

	principal, pair, err := s.Login(ctx, "alice", "correcthorsebattery")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if principal.Username != "alice" || principal.UserID == "" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty tokens: %+v", pair)
	}
}

func TestRegister_NeverStoresPlaintext(t *testing.T) {
	rm := newFakeRepoManager()
	s, mock := newUserService(t, rm, newFakeSessionStore())

	expectRegisterTx(mock, true)
	if err := s.Register(context.Background(), "alice", "alice@x.com", "correcthorsebattery"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	stored := rm.u.byUsername["alice"]
	if stored.PasswordHash == "correcthorsebattery" {
		t.Fatal("password stored as plaintext")
	}
	if stored.PasswordHash == "" {
		t.Fatal("password hash missing")
	}
}

func TestRegister_NormalizesUsernameAndEmail(t *testing.T) {
	rm := newFakeRepoManager()
	s, mock := newUserService(t, rm, newFakeSessionStore())
	ctx := context.Background()

	expectRegisterTx(mock, true)
	if err := s.Register(ctx, "  ALICE ", " Alice@X.COM ", "correcthorsebattery"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	stored, ok := rm.u.byUsername["alice"]
	if !ok {
		t.Fatalf("user not stored under normalized username: %v", rm.u.byUsername)
	}
	if stored.Email != "alice@x.com" {
		t.Fatalf("email not normalized: %q", stored.Email)
	}

	// login performs the same normalization
	if _, _, err := s.Login(ctx, "ALICE", "correcthorsebattery"); err != nil {
		t.Fatalf("Login with unnormalized username: %v", err)
	}
}

func TestRegister_AccumulatesAllErrorsInOrder(t *testing.T) {
	s, _ := newUserService(t, newFakeRepoManager(), newFakeSessionStore())

	err := s.Register(context.Background(), "a", "not-an-email", "x")
	ve := common.AsValidationError(err)
	if ve == nil {
		t.Fatalf("want ValidationError, got %v", err)
	}

	want := []string{
		msgEmailInvalid,
		msgPasswordTooShort,
		msgUsernameTooShort,
	}
	if len(ve.Messages) != len(want) {
		t.Fatalf("want %d messages, got %v", len(want), ve.Messages)
	}
	for i := range want {
		if ve.Messages[i] != want[i] {
			t.Fatalf("message %d: want %q, got %q", i, want[i], ve.Messages[i])
		}
	}
}

func TestRegister_EmptyInput(t *testing.T) {
	s, _ := newUserService(t, newFakeRepoManager(), newFakeSessionStore())

	err := s.Register(context.Background(), "", "", "")
	ve := common.AsValidationError(err)
	if ve == nil {
		t.Fatalf("want ValidationError, got %v", err)
	}

	want := []string{msgUsernameMissing, msgEmailInvalid, msgPasswordMissing}
	if len(ve.Messages) != len(want) {
		t.Fatalf("want %v, got %v", want, ve.Messages)
	}
	for i := range want {
		if ve.Messages[i] != want[i] {
			t.Fatalf("message %d: want %q, got %q", i, want[i], ve.Messages[i])
		}
	}
}

func TestRegister_RejectsNonAlphanumericUsername(t *testing.T) {
	s, _ := newUserService(t, newFakeRepoManager(), newFakeSessionStore())

	err := s.Register(context.Background(), "al ice!", "alice@x.com", "correcthorsebattery")
	ve := common.AsValidationError(err)
	if ve == nil {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if ve.Messages[0] != msgUsernameFormat {
		t.Fatalf("want %q first, got %v", msgUsernameFormat, ve.Messages)
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	s, _ := newUserService(t, newFakeRepoManager(), newFakeSessionStore())

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'p'
	}

	err := s.Register(context.Background(), "alice", "alice@x.com", string(long))
	ve := common.AsValidationError(err)
	if ve == nil || ve.Messages[0] != msgPasswordTooLong {
		t.Fatalf("want %q, got %v", msgPasswordTooLong, err)
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	rm := newFakeRepoManager()
	s, mock := newUserService(t, rm, newFakeSessionStore())
	ctx := context.Background()

	expectRegisterTx(mock, true)
	if err := s.Register(ctx, "alice", "alice@x.com", "correcthorsebattery"); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	// same username case-folds to the existing record
	expectRegisterTx(mock, false)
	err := s.Register(ctx, "ALICE", "other@x.com", "correcthorsebattery")
	ve := common.AsValidationError(err)
	if ve == nil || ve.Messages[0] != msgUsernameTaken {
		t.Fatalf("want %q, got %v", msgUsernameTaken, err)
	}
	if len(rm.u.byUsername) != 1 {
		t.Fatalf("duplicate account created: %v", rm.u.byUsername)
	}
}

func TestRegister_ConflictRaceReportsTaken(t *testing.T) {
	rm := newFakeRepoManager()
	// pre-check misses, insert loses the race on the unique index
	rm.u.createErr = common.ErrorConflict
	s, mock := newUserService(t, rm, newFakeSessionStore())

	expectRegisterTx(mock, false)
	err := s.Register(context.Background(), "alice", "alice@x.com", "correcthorsebattery")
	ve := common.AsValidationError(err)
	if ve == nil || ve.Messages[0] != msgUsernameTaken {
		t.Fatalf("want %q, got %v", msgUsernameTaken, err)
	}
}

func TestRegister_TransientStoreError(t *testing.T) {
	rm := newFakeRepoManager()
	rm.u.getErr = errBoom{}
	s, mock := newUserService(t, rm, newFakeSessionStore())

	expectRegisterTx(mock, false)
	err := s.Register(context.Background(), "alice", "alice@x.com", "correcthorsebattery")
	if !errors.Is(err, common.ErrorTransient) {
		t.Fatalf("want ErrorTransient, got %v", err)
	}
}

func TestLogin_WrongPasswordAndUnknownUser_SameError(t *testing.T) {
	rm := newFakeRepoManager()
	s, mock := newUserService(t, rm, newFakeSessionStore())
	ctx := context.Background()

	expectRegisterTx(mock, true)
	if err := s.Register(ctx, "alice", "alice@x.com", "correcthorsebattery"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, _, errWrongPass := s.Login(ctx, "alice", "wrongpassword")
	_, _, errNoUser := s.Login(ctx, "ghost", "correcthorsebattery")

	if !errors.Is(errWrongPass, common.ErrorInvalidCredentials) {
		t.Fatalf("wrong password: want ErrorInvalidCredentials, got %v", errWrongPass)
	}
	if !errors.Is(errNoUser, common.ErrorInvalidCredentials) {
		t.Fatalf("unknown user: want ErrorInvalidCredentials, got %v", errNoUser)
	}
	if errWrongPass.Error() != errNoUser.Error() {
		t.Fatalf("error messages differ: %q vs %q", errWrongPass, errNoUser)
	}
}

func TestLogin_TransientStoreError(t *testing.T) {
	rm := newFakeRepoManager()
	rm.u.getErr = errBoom{}
	s, _ := newUserService(t, rm, newFakeSessionStore())

	_, _, err := s.Login(context.Background(), "alice", "correcthorsebattery")
	if !errors.Is(err, common.ErrorTransient) {
		t.Fatalf("want ErrorTransient, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	rm := newFakeRepoManager()
	s, mock := newUserService(t, rm, newFakeSessionStore())
	ctx := context.Background()

	expectRegisterTx(mock, true)
	if err := s.Register(ctx, "alice", "alice@x.com", "correcthorsebattery"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	p, err := s.Lookup(ctx, " ALICE ")
	if err != nil || p.Username != "alice" {
		t.Fatalf("Lookup: got (%+v, %v)", p, err)
	}

	if _, err := s.Lookup(ctx, "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestRefreshToken_RotatesPair(t *testing.T) {
	rm := newFakeRepoManager()
	store := newFakeSessionStore()
	s, mock := newUserService(t, rm, store)
	ctx := context.Background()

	expectRegisterTx(mock, true)
	if err := s.Register(ctx, "alice", "alice@x.com", "correcthorsebattery"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	_, pair, err := s.Login(ctx, "alice", "correcthorsebattery")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	newPair, err := s.RefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if newPair.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token not rotated")
	}

	// the old token is gone
	if _, err := s.RefreshToken(ctx, pair.RefreshToken); !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired for reused token, got %v", err)
	}
}

func TestRefreshToken_Unknown(t *testing.T) {
	s, _ := newUserService(t, newFakeRepoManager(), newFakeSessionStore())

	_, err := s.RefreshToken(context.Background(), "never-issued")
	if !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	rm := newFakeRepoManager()
	store := newFakeSessionStore()
	s, mock := newUserService(t, rm, store)
	ctx := context.Background()

	expectRegisterTx(mock, true)
	if err := s.Register(ctx, "alice", "alice@x.com", "correcthorsebattery"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	_, pair, err := s.Login(ctx, "alice", "correcthorsebattery")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if err := s.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if _, err := s.RefreshToken(ctx, pair.RefreshToken); !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("token should be invalid after logout, got %v", err)
	}
}
