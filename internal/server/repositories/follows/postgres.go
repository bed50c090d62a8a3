package follows

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/talonmd/socialgraph/internal/common"
	"github.com/talonmd/socialgraph/internal/dbx"
	"github.com/talonmd/socialgraph/internal/server/models"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Find(ctx context.Context, followedID, authorID string) (*models.Follow, error) {
	query :=
		`SELECT followed_id, author_id, created_at FROM follows
		 WHERE followed_id = $1 AND author_id = $2
		 `

	follow := &models.Follow{}
	err := r.db.QueryRowContext(ctx, query, followedID, authorID).
		Scan(&follow.FollowedID, &follow.AuthorID, &follow.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return follow, nil
}

// Insert creates the edge. The composite primary key on (followed_id,
// author_id) turns a concurrent duplicate into common.ErrorConflict.
func (r *PostgresRepository) Insert(ctx context.Context, followedID, authorID string) error {
	query :=
		`INSERT INTO follows (followed_id, author_id)
		 VALUES ($1, $2)
		 `

	if _, err := r.db.ExecContext(ctx, query, followedID, authorID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, followedID, authorID string) error {
	query :=
		`DELETE FROM follows
		 WHERE followed_id = $1 AND author_id = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, followedID, authorID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountByFollowed(ctx context.Context, followedID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM follows WHERE followed_id = $1`, followedID)
}

func (r *PostgresRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM follows WHERE author_id = $1`, authorID)
}

func (r *PostgresRepository) count(ctx context.Context, query, id string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) FollowersOf(ctx context.Context, followedID string) ([]models.Profile, error) {
	query :=
		`SELECT u.username, u.email FROM follows f
		 JOIN users u ON u.id = f.author_id
		 WHERE f.followed_id = $1
		 `
	return r.profiles(ctx, query, followedID)
}

func (r *PostgresRepository) FollowedBy(ctx context.Context, authorID string) ([]models.Profile, error) {
	query :=
		`SELECT u.username, u.email FROM follows f
		 JOIN users u ON u.id = f.followed_id
		 WHERE f.author_id = $1
		 `
	return r.profiles(ctx, query, authorID)
}

func (r *PostgresRepository) profiles(ctx context.Context, query, id string) ([]models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.Username, &p.Email); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return profiles, nil
}
