package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/registration/app/internal/cli"
	"github.com/registration/app/internal/config"
	"github.com/registration/app/internal/database"
	"github.com/registration/app/internal/logging"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, rest, err := config.LoadConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	log := logger.WithField("run_id", uuid.NewString())

	db, err := database.InitDB(cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Error("Error initializing database")
		return 1
	}
	defer db.Close()

	app := cli.NewApp(database.NewUserStore(db, log), stdin, stdout, log)
	err = app.Run(ctx, rest)
	if err != nil && !errors.Is(err, cli.ErrUsage) && !errors.Is(err, cli.ErrUserExists) && !errors.Is(err, cli.ErrAuthFailed) {
		log.WithError(err).Error("command failed")
	}
	return cli.ExitCode(err)
}
