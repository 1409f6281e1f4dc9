// Command walkctl drives the marketplace core against the local record store.
// The logged-in actor is kept in the store's session record between invocations.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"

	"furamora/internal/app"
	"furamora/internal/apperr"
	"furamora/internal/config"
	"furamora/internal/logging"
	"furamora/internal/session"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	level := cfg.Log.Level
	if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
		level = "warn"
	}
	if err := logging.Setup(stderr, level, cfg.Log.Format); err != nil {
		fmt.Fprintf(stderr, "logging: %v\n", err)
		return 2
	}

	ctx := context.Background()
	core, err := app.Open(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(stderr, "open store: %v\n", err)
		return 1
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.WithError(err).Error("close store")
		}
	}()

	cli := &CLI{Core: core, Session: session.NewStoreHolder(core.Records.Session), Out: stdout}
	if err := cli.Run(ctx, args); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", apperr.Message(err))
	if apperr.RedirectOf(err) == apperr.RedirectLogin {
		fmt.Fprintln(w, "hint: run `walkctl login` first")
	}
}
