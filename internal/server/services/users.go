// Package services implements the business rules that keep the account
// records and the follow graph consistent. Repositories stay passive; every
// invariant is enforced here before a write is attempted.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/talonmd/socialgraph/internal/common"
	"github.com/talonmd/socialgraph/internal/cryptox"
	"github.com/talonmd/socialgraph/internal/dbx"
	"github.com/talonmd/socialgraph/internal/server/auth"
	"github.com/talonmd/socialgraph/internal/server/config"
	"github.com/talonmd/socialgraph/internal/server/models"
	"github.com/talonmd/socialgraph/internal/server/repositories/repomanager"
	"github.com/talonmd/socialgraph/internal/server/sessions"
)

// Registration rule violations, reported in evaluation order.
const (
	msgUsernameMissing  = "You must provide a username."
	msgUsernameFormat   = "Username can only contain letters and numbers."
	msgEmailInvalid     = "You must provide a valid email address."
	msgPasswordMissing  = "You must provide a password."
	msgPasswordTooShort = "Password must be at least 12 characters."
	msgPasswordTooLong  = "Password cannot exceed 50 characters."
	msgUsernameTooShort = "Username must be at least 3 characters."
	msgUsernameTooLong  = "Username cannot exceed 30 characters."
	msgUsernameTaken    = "That username is already taken."
)

// Principal is the authenticated identity attached to a request after a
// successful login.
type Principal struct {
	UserID   string
	Username string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService owns the credential lifecycle: registration input is
// normalized and validated here, passwords only ever leave as bcrypt hashes,
// and login failures are indistinguishable between unknown-user and
// wrong-password.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	hasher                       cryptox.Hasher
	sessions                     sessions.Store
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h cryptox.Hasher, s sessions.Store, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		hasher:                       h,
		sessions:                     s,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// normalize trims and lowercases a username or email. Passwords are never
// normalized.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validateRegistration applies every rule and returns the full ordered list
// of violations; it never stops at the first failure.
func validateRegistration(username, email, password string) []string {
	var msgs []string

	if username == "" {
		msgs = append(msgs, msgUsernameMissing)
	}
	if username != "" && !govalidator.IsAlphanumeric(username) {
		msgs = append(msgs, msgUsernameFormat)
	}
	if !govalidator.IsEmail(email) {
		msgs = append(msgs, msgEmailInvalid)
	}
	if password == "" {
		msgs = append(msgs, msgPasswordMissing)
	}
	if len(password) > 0 && len(password) < 12 {
		msgs = append(msgs, msgPasswordTooShort)
	}
	if len(password) > 50 {
		msgs = append(msgs, msgPasswordTooLong)
	}
	if len(username) > 0 && len(username) < 3 {
		msgs = append(msgs, msgUsernameTooShort)
	}
	if len(username) > 30 {
		msgs = append(msgs, msgUsernameTooLong)
	}

	return msgs
}

// Register normalizes and validates the input, then persists the new account
// with a hashed password. Rule violations come back as a *common.ValidationError
// carrying every message; nothing is written in that case. A store failure is
// reported as common.ErrorTransient.
//
// The uniqueness pre-check and the insert share one transaction; the unique
// index on username still catches a registration racing in from another
// connection.
func (s *UserService) Register(ctx context.Context, username, email, password string) error {

	username = normalize(username)
	email = normalize(email)

	if msgs := validateRegistration(username, email, password); len(msgs) > 0 {
		return common.NewValidationError(msgs...)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByUsername(ctx, username)
		switch {
		case err == nil:
			return common.NewValidationError(msgUsernameTaken)
		case errors.Is(err, common.ErrorNotFound):
			// username is free
		default:
			return fmt.Errorf("%w: %v", common.ErrorTransient, err)
		}

		if _, err := repo.Create(ctx, user); err != nil {
			if errors.Is(err, common.ErrorConflict) {
				return common.NewValidationError(msgUsernameTaken)
			}
			return fmt.Errorf("%w: %v", common.ErrorTransient, err)
		}

		return nil
	})
}

// Login verifies the credentials and, on success, returns the principal and
// a fresh token pair. Unknown username and wrong password both yield
// common.ErrorInvalidCredentials; only a store failure is reported
// differently (common.ErrorTransient), so the caller knows a retry may help.
func (s *UserService) Login(ctx context.Context, username, password string) (*Principal, *TokenPair, error) {

	username = normalize(username)

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorInvalidCredentials
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, common.ErrorInvalidCredentials
	}

	principal := &Principal{UserID: user.ID, Username: user.Username}

	pair, err := s.generateTokenPair(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating token pair: %w", err)
	}

	return principal, pair, nil
}

// Lookup resolves a normalized username to a principal without any
// credential check. Used by read-only profile views.
func (s *UserService) Lookup(ctx context.Context, username string) (*Principal, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, normalize(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}
	return &Principal{UserID: user.ID, Username: user.Username}, nil
}

// RefreshToken rotates a refresh token: the old one is invalidated and a new
// pair is issued for the same user.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {

	userID, err := s.sessions.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if err := s.sessions.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("error deleting refresh token: %w", err)
	}

	pair, err := s.generateTokenPair(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error generating token pair: %w", err)
	}

	return pair, nil
}

// Logout invalidates the given refresh token. Already-expired tokens are not
// an error.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Delete(ctx, refreshToken)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string) (*TokenPair, error) {

	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Create(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
