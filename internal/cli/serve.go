package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
	"github.com/tgienger/taskly/internal/api"
	"github.com/tgienger/taskly/internal/auth"
	"github.com/tgienger/taskly/internal/config"
	"github.com/tgienger/taskly/internal/db"
	"github.com/tgienger/taskly/internal/db/postgres"
	"github.com/tgienger/taskly/internal/logging"
	"github.com/tgienger/taskly/internal/tasks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the task API server",
	Long: `Run the HTTP API that stores users and tasks.

The server needs a signing secret, set server.jwt_secret in the config file
or TASKLY_SERVER_JWT_SECRET in the environment.`,
	RunE: runServe,
}

// serverStore is the storage behind the API, whichever driver backs it.
type serverStore struct {
	tasks tasks.Store
	users auth.UserStore
	close func()
}

func openServerStore(ctx context.Context, cfg config.ServerConfig) (*serverStore, error) {
	if cfg.Driver == config.DriverPostgres {
		s, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return &serverStore{tasks: s, users: s, close: s.Close}, nil
	}

	path := cfg.SQLitePath
	if path == "" {
		dir, err := db.DataDir()
		if err != nil {
			return nil, fmt.Errorf("locate data dir: %w", err)
		}
		path = filepath.Join(dir, "server.db")
	}
	database, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &serverStore{
		tasks: database,
		users: database,
		close: func() { database.Close() },
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret is required (or TASKLY_SERVER_JWT_SECRET)")
	}

	log := logging.New(cfg.Log, os.Stderr).With().Str("component", "server").Logger()

	ctx := context.Background()
	store, err := openServerStore(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer store.close()

	accounts := auth.NewService(
		store.users,
		auth.NewPasswordHasher(auth.DefaultBcryptCost),
		auth.NewJWTManager(auth.JWTConfig{
			Secret:   cfg.Server.JWTSecret,
			TokenTTL: cfg.Server.TokenTTL,
		}),
	)
	srv := api.New(api.Config{
		Addr:        cfg.Server.Addr,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, store.tasks, accounts, log)

	// Bind before waiting for signals so a busy port fails the command
	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	go func() {
		if err := srv.Serve(ln); err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("driver", cfg.Server.Driver).Msg("storage ready")

	wait := gfshutdown.GracefulShutdown(ctx, cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Info().Msg("graceful shutdown initiated")
				return srv.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Info().Int("exit_code", exitCode).Msg("server exited")
	if exitCode != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", exitCode)
	}
	return nil
}
