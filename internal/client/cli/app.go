package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/talonmd/socialgraph/internal/client/api"
	"github.com/talonmd/socialgraph/internal/client/config"
)

// apiClient is the slice of the API surface the CLI commands use.
// *api.Client satisfies it; tests can provide a stub.
type apiClient interface {
	LoggedIn() bool
	Register(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context) error
	Follow(ctx context.Context, username string) error
	Unfollow(ctx context.Context, username string) error
	Profile(ctx context.Context, username string) (*api.Profile, error)
	Followers(ctx context.Context, username string) ([]api.ProfileCard, error)
	Following(ctx context.Context, username string) ([]api.ProfileCard, error)
}

// App ties together configuration, the API client, and the interactive REPL.
type App struct {
	config   *config.Config
	client   apiClient
	userName string
	reader   *bufio.Reader
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		client: api.NewClient(c.ServerBaseURL),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "(anonymous)"
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// Run starts the REPL over stdin and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to socialgraph CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
