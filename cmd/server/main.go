package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"goldenpaws-scheduler/internal/app"
	"goldenpaws-scheduler/internal/config"
	"goldenpaws-scheduler/internal/logging"
	"goldenpaws-scheduler/internal/server"
	"goldenpaws-scheduler/internal/store/pgstore"
	"goldenpaws-scheduler/internal/store/sqlitestore"
	"goldenpaws-scheduler/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "goldenpaws-scheduler",
		Short:         "Golden Paws Doodles appointment scheduling service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(slotsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			defer env.close()

			ctx := cmd.Context()
			b, err := openStore(ctx, env.cfg)
			if err != nil {
				return err
			}
			defer b.store.Close()

			if err := b.migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			env.log.Info().Str("driver", env.cfg.StoreDriver).Msg("migrations applied")
			return nil
		},
	}
}

func slotsCmd() *cobra.Command {
	var (
		date   string
		typeID string
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print resolved availability for one date as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.ParseDate(date)
			if err != nil {
				return err
			}
			var tid *uuid.UUID
			if typeID != "" {
				id, err := uuid.Parse(typeID)
				if err != nil {
					return fmt.Errorf("invalid --type: %w", err)
				}
				tid = &id
			}

			env, err := setup()
			if err != nil {
				return err
			}
			defer env.close()

			ctx := cmd.Context()
			b, err := openStore(ctx, env.cfg)
			if err != nil {
				return err
			}
			defer b.store.Close()

			svc := app.NewService(b.store, env.loc, app.WithLogger(env.log))
			day, err := svc.Availability(ctx, d, tid)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(day)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date to resolve (YYYY-MM-DD)")
	cmd.Flags().StringVar(&typeID, "type", "", "appointment type id; omit for raw windows")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

type environment struct {
	cfg   *config.Config
	log   zerolog.Logger
	loc   *time.Location
	close func()
}

// setup loads and validates config and builds the logger.
func setup() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(logging.Config{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: cfg.IsDev(),
	}, os.Stdout)
	if err != nil {
		return nil, err
	}
	return &environment{
		cfg:   cfg,
		log:   logger,
		loc:   loc,
		close: func() { _ = closer.Close() },
	}, nil
}

type backend struct {
	store   app.Store
	migrate func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &backend{
			store:   s,
			migrate: func(ctx context.Context) error { return migrations.UpSQLite(ctx, s.DB()) },
		}, nil
	default:
		s, err := pgstore.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &backend{
			store:   s,
			migrate: func(ctx context.Context) error { return migrations.UpPostgres(ctx, s.Pool()) },
		}, nil
	}
}

func runServer(ctx context.Context) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()
	cfg, logger := env.cfg, env.log

	b, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.store.Close()
	if err := b.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Str("driver", cfg.StoreDriver).Msg("store ready")

	opts := []app.Option{app.WithLogger(logger)}
	google := app.NewGoogleCalendarConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	if google != nil && cfg.GoogleCalendarToken != "" {
		// The sync client outlives ctx.
		sync, err := app.NewGoogleCalendarSync(context.Background(), google, cfg.GoogleCalendarToken, cfg.GoogleCalendarID, env.loc)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithCalendarSync(sync))
		logger.Info().Str("calendar_id", cfg.GoogleCalendarID).Msg("google calendar sync enabled")
	}
	svc := app.NewService(b.store, env.loc, opts...)

	if cfg.JWTSecret == "" && len(cfg.Tokens()) == 0 {
		logger.Warn().Msg("no staff credentials configured; admin routes will reject every request")
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = io.Discard
	router := gin.New()
	router.Use(server.RequestID(), server.RequestLogger(logger), server.Recovery(logger))

	a := &app.App{Svc: svc, Google: google, Log: logger}
	a.RegisterRoutes(router,
		app.AuthMiddleware(cfg.JWTSecret, cfg.Tokens()),
		server.RateLimit(cfg.BookingRateLimitRPS, cfg.BookingRateLimitBurst),
	)

	if err := server.Run(ctx, router, cfg.Addr(), logger); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
