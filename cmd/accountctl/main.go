package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/accounts/internal/admin/cli"
	"github.com/dmitrijs2005/accounts/internal/flagx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server"
	"github.com/dmitrijs2005/accounts/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	db, rm, err := server.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	svc, _, err := server.NewAccountService(ctx, cfg, db, rm, logger)
	if err != nil {
		db.Close()
		log.Fatalf("%v", err)
	}

	app := cli.NewApp(svc, os.Stdin, os.Stdout)
	code := app.Run(ctx, flagx.Positional(os.Args[1:], config.FlagNames()))

	db.Close()
	os.Exit(code)
}
