package main

import (
	"context"

	"github.com/talonmd/socialgraph/internal/client/cli"
	"github.com/talonmd/socialgraph/internal/client/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)
	app.Run(ctx)
}
