package cli

import (
	"context"
	"errors"
	"os"

	"github.com/talonmd/socialgraph/internal/client/api"
	"github.com/talonmd/socialgraph/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a username, email and password and attempts
// to create a new account. Validation messages returned by the server are
// printed one per line. The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.client.Register(ctx, userName, email, string(password)); err != nil {
		reportError(err)
		return err
	}

	printlnFn("Account created. You can now log in.")
	return nil
}

// Login prompts the user for credentials and tries to authenticate. On
// success the canonical username echoed by the server becomes the prompt
// status. The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	canonical, err := a.client.Login(ctx, userName, string(password))
	if err != nil {
		reportError(err)
		return err
	}

	a.userName = canonical
	printlnFn("Logged in as", canonical)
	return nil
}

// Logout revokes the session on the server and clears the prompt status.
func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.userName = ""
	if err != nil {
		reportError(err)
		return err
	}
	printlnFn("Logged out.")
	return nil
}

// reportError prints a user-facing description of an API error.
func reportError(err error) {
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		for _, msg := range ve.Messages {
			printlnFn(msg)
		}
		return
	}

	switch {
	case errors.Is(err, api.ErrUnauthorized):
		printlnFn("You need to log in first.")
	case errors.Is(err, api.ErrNotFound):
		printlnFn("No such user.")
	case errors.Is(err, api.ErrUnavailable):
		printlnFn("Server unavailable, please try again later.")
	default:
		printlnFn("Error:", err.Error())
	}
}
