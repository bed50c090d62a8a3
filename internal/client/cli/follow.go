package cli

import (
	"context"
	"fmt"

	"github.com/talonmd/socialgraph/internal/client/api"
)

// Follow starts following the named user.
func (a *App) Follow(ctx context.Context, username string) error {
	if err := a.client.Follow(ctx, username); err != nil {
		reportError(err)
		return err
	}
	printlnFn("You are now following", username)
	return nil
}

// Unfollow stops following the named user.
func (a *App) Unfollow(ctx context.Context, username string) error {
	if err := a.client.Unfollow(ctx, username); err != nil {
		reportError(err)
		return err
	}
	printlnFn("You stopped following", username)
	return nil
}

// Profile prints the named user's profile, including follower counts and,
// when logged in, whether the current user follows them.
func (a *App) Profile(ctx context.Context, username string) error {
	p, err := a.client.Profile(ctx, username)
	if err != nil {
		reportError(err)
		return err
	}

	printlnFn(p.Username)
	printlnFn(fmt.Sprintf("  followers: %d", p.FollowerCount))
	printlnFn(fmt.Sprintf("  following: %d", p.FollowingCount))
	if a.isLoggedIn() {
		if p.Following {
			printlnFn("  you follow this user")
		} else {
			printlnFn("  you do not follow this user")
		}
	}
	return nil
}

// Followers prints who follows the named user.
func (a *App) Followers(ctx context.Context, username string) error {
	cards, err := a.client.Followers(ctx, username)
	if err != nil {
		reportError(err)
		return err
	}
	printCards(cards, "Nobody follows "+username+" yet.")
	return nil
}

// Following prints who the named user follows.
func (a *App) Following(ctx context.Context, username string) error {
	cards, err := a.client.Following(ctx, username)
	if err != nil {
		reportError(err)
		return err
	}
	printCards(cards, username+" is not following anyone yet.")
	return nil
}

func printCards(cards []api.ProfileCard, empty string) {
	if len(cards) == 0 {
		printlnFn(empty)
		return
	}
	for _, card := range cards {
		printlnFn(fmt.Sprintf("%s  %s", card.Username, card.Avatar))
	}
}
