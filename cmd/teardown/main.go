// teardown drops every table in the configured database. It refuses to run without --yes,
// and against APP_ENV=production without --force.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"webstarter/backend/internal/config"
	"webstarter/backend/internal/db"
	"webstarter/backend/internal/db/teardown"
)

var (
	errNotConfirmed = errors.New("refusing to drop all tables without --yes")
	errProduction   = errors.New("refusing to tear down a production database without --force")
)

type options struct {
	yes   bool
	force bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "teardown",
		Short:        "Drop every table by recreating the public schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := checkSafety(cfg, opts); err != nil {
				return err
			}
			return runTeardown(cmd.Context(), cfg.DatabaseURL, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "confirm that every table will be dropped")
	cmd.Flags().BoolVar(&opts.force, "force", false, "allow teardown when APP_ENV is production")
	return cmd
}

func checkSafety(cfg *config.Config, opts options) error {
	if !opts.yes {
		return errNotConfirmed
	}
	if cfg.IsProduction() && !opts.force {
		return errProduction
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	return nil
}

func runTeardown(ctx context.Context, dsn string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	sqlDB, err := db.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := teardown.Run(ctx, sqlDB); err != nil {
		return err
	}
	fmt.Fprintln(out, "teardown: all tables dropped; run migrate up to recreate the schema")
	return nil
}
