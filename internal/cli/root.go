package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"flexliving_reviews/internal/adapters/backend"
	"flexliving_reviews/internal/adapters/observability"
	redisad "flexliving_reviews/internal/adapters/redis"
	"flexliving_reviews/internal/app"
	"flexliving_reviews/internal/domain"
	"flexliving_reviews/internal/shared"
	mysqlrepo "flexliving_reviews/internal/storage/mysql"
)

const version = "0.3.0"

const (
	ExitSuccess      = 0
	ExitPartial      = 1 // some approvals failed
	ExitUsageError   = 2
	ExitRuntimeError = 3
)

// deps is what every subcommand talks to.
type deps struct {
	q       *app.QueryService
	m       *app.ModerationService
	workers int
	close   func()
}

type runner struct {
	out     io.Writer
	newDeps func(ctx context.Context) (*deps, error)
	exit    int
}

// Run executes reviewctl with the process arguments and returns an exit code.
func Run() int {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv).With().Str("cmd", "reviewctl").Logger()

	r := &runner{out: os.Stdout, newDeps: func(ctx context.Context) (*deps, error) { return buildDeps(ctx, cfg) }}
	return r.run(os.Args[1:])
}

func (r *runner) run(args []string) int {
	root := r.rootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		// Cobra already prints the error
		if r.exit == ExitSuccess {
			return ExitUsageError
		}
	}
	return r.exit
}

func (r *runner) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "reviewctl",
		Short:        "Inspect and moderate guest reviews",
		Long:         "reviewctl lists, aggregates and approves guest reviews through the reviews API.",
		SilenceUsage: true,
	}
	root.SetOut(r.out)
	root.SetErr(r.out)

	root.AddCommand(r.reviewsCmd())
	root.AddCommand(r.statsCmd())
	root.AddCommand(r.trendsCmd())
	root.AddCommand(r.propertyCmd())
	root.AddCommand(r.historyCmd())
	root.AddCommand(r.approveCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print reviewctl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reviewctl version %s\n", version)
		},
	})
	return root
}

// withDeps opens the dependencies for one command invocation and marks
// failures as runtime errors rather than usage errors.
func (r *runner) withDeps(cmd *cobra.Command, fn func(ctx context.Context, d *deps) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := r.newDeps(ctx)
	if err != nil {
		r.exit = ExitRuntimeError
		return err
	}
	if d.close != nil {
		defer d.close()
	}
	if err := fn(ctx, d); err != nil {
		if r.exit == ExitSuccess {
			r.exit = ExitRuntimeError
		}
		return err
	}
	return nil
}

func buildDeps(ctx context.Context, cfg shared.Config) (*deps, error) {
	api, err := backend.New(cfg.APIBase, cfg.APIRPS, cfg.APITimeout)
	if err != nil {
		return nil, fmt.Errorf("reviews API client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var closers []func()
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, cache will not be invalidated")
		} else {
			cache = rc
			closers = append(closers, func() { _ = rc.Close() })
		}
	}

	var audit domain.AuditLog
	if cfg.MySQLDSN != "" {
		if _, err := mysqlrepo.NormalizeDSN(cfg.MySQLDSN); err != nil {
			return nil, err
		}
		if db, err := mysqlrepo.Open(pingCtx, cfg.MySQLDSN); err != nil {
			log.Warn().Err(err).Msg("mysql unreachable, approvals will not be audited")
		} else {
			audit = mysqlrepo.New(db)
			closers = append(closers, func() { _ = db.Close() })
		}
	}

	return &deps{
		q:       app.NewQueryService(api, cache, cfg.CacheTTL),
		m:       app.NewModerationService(api, cache, audit),
		workers: cfg.ApproveWorkers,
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}
