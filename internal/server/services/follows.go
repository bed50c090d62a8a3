package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talonmd/socialgraph/internal/avatar"
	"github.com/talonmd/socialgraph/internal/common"
	"github.com/talonmd/socialgraph/internal/server/models"
	"github.com/talonmd/socialgraph/internal/server/repositories/repomanager"
)

// Relationship rule violations, reported in evaluation order.
const (
	msgTargetMissing   = "You cannot follow a user that does not exist."
	msgAlreadyFollow   = "You are already following this user."
	msgSelfFollow      = "You cannot follow yourself."
	msgNotYetFollowing = "You cannot stop following somebody you do not already follow."
)

// AnonymousVisitor is the sentinel id for unauthenticated visitors; it never
// matches any edge.
const AnonymousVisitor = ""

// ProfileCard is the projection returned by follower/following listings.
type ProfileCard struct {
	Username string
	Avatar   string
}

// FollowService validates and mutates follow edges. Duplicate-follow,
// self-follow and existence rules all live here; the store only supplies the
// composite-key backstop for concurrent duplicates.
type FollowService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewFollowService(db *sql.DB, m repomanager.RepositoryManager) *FollowService {
	return &FollowService{db: db, repomanager: m}
}

// Follow creates the edge actorID → targetUsername. Every applicable rule is
// checked before failing: an unknown target, an existing edge and a
// self-follow are each reported, together, as a *common.ValidationError.
// The already-following and self-follow checks only run when the target
// resolved; there is no id to compare against otherwise.
func (s *FollowService) Follow(ctx context.Context, actorID, targetUsername string) error {

	target, msgs, err := s.resolveTarget(ctx, targetUsername)
	if err != nil {
		return err
	}

	if target != "" {
		_, err := s.repomanager.Follows(s.db).Find(ctx, target, actorID)
		switch {
		case err == nil:
			msgs = append(msgs, msgAlreadyFollow)
		case errors.Is(err, common.ErrorNotFound):
			// no edge yet
		default:
			return fmt.Errorf("%w: %v", common.ErrorTransient, err)
		}

		if target == actorID {
			msgs = append(msgs, msgSelfFollow)
		}
	}

	if len(msgs) > 0 {
		return common.NewValidationError(msgs...)
	}

	if err := s.repomanager.Follows(s.db).Insert(ctx, target, actorID); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			// lost the race against an identical follow
			return common.ErrorConflict
		}
		return fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}

	return nil
}

// Unfollow removes the edge actorID → targetUsername. An unknown target and
// a missing edge are collected the same way Follow collects its rules. No
// self-follow check is needed: a self-edge can never have been created.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetUsername string) error {

	target, msgs, err := s.resolveTarget(ctx, targetUsername)
	if err != nil {
		return err
	}

	if target != "" {
		_, err := s.repomanager.Follows(s.db).Find(ctx, target, actorID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			msgs = append(msgs, msgNotYetFollowing)
		case err != nil:
			return fmt.Errorf("%w: %v", common.ErrorTransient, err)
		}
	}

	if len(msgs) > 0 {
		return common.NewValidationError(msgs...)
	}

	if err := s.repomanager.Follows(s.db).Delete(ctx, target, actorID); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}

	return nil
}

// resolveTarget normalizes the username and resolves it to a user id. A
// missing user is a rule violation (collected), a store failure is transient
// (returned).
func (s *FollowService) resolveTarget(ctx context.Context, targetUsername string) (string, []string, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, normalize(targetUsername))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", []string{msgTargetMissing}, nil
		}
		return "", nil, fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}
	return user.ID, nil, nil
}

// IsFollowing reports whether visitorID currently follows followedID. The
// anonymous sentinel never matches an edge and is answered without touching
// the store.
func (s *FollowService) IsFollowing(ctx context.Context, followedID, visitorID string) (bool, error) {
	if visitorID == AnonymousVisitor {
		return false, nil
	}

	_, err := s.repomanager.Follows(s.db).Find(ctx, followedID, visitorID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}
	return true, nil
}

// Followers lists the profiles following userID. Order is whatever the store
// yields.
func (s *FollowService) Followers(ctx context.Context, userID string) ([]ProfileCard, error) {
	profiles, err := s.repomanager.Follows(s.db).FollowersOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}
	return toCards(profiles), nil
}

// Following lists the profiles userID follows.
func (s *FollowService) Following(ctx context.Context, userID string) ([]ProfileCard, error) {
	profiles, err := s.repomanager.Follows(s.db).FollowedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}
	return toCards(profiles), nil
}

func (s *FollowService) CountFollowers(ctx context.Context, userID string) (int64, error) {
	n, err := s.repomanager.Follows(s.db).CountByFollowed(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}
	return n, nil
}

func (s *FollowService) CountFollowing(ctx context.Context, userID string) (int64, error) {
	n, err := s.repomanager.Follows(s.db).CountByAuthor(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorTransient, err)
	}
	return n, nil
}

func toCards(profiles []models.Profile) []ProfileCard {
	cards := make([]ProfileCard, 0, len(profiles))
	for _, p := range profiles {
		cards = append(cards, ProfileCard{
			Username: p.Username,
			Avatar:   avatar.URL(p.Email),
		})
	}
	return cards
}
