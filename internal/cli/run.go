package cli

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tgienger/taskly/internal/auth"
	"github.com/tgienger/taskly/internal/config"
	"github.com/tgienger/taskly/internal/db"
	"github.com/tgienger/taskly/internal/logging"
	"github.com/tgienger/taskly/internal/remote"
	"github.com/tgienger/taskly/internal/tasks"
	"github.com/tgienger/taskly/internal/ui"
)

// localSecretKey holds the signing secret of local-mode sessions.
const localSecretKey = "local_jwt_secret"

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	dataDir := cfg.Client.DataDir
	if dataDir == "" {
		if dataDir, err = db.DataDir(); err != nil {
			return fmt.Errorf("locate data dir: %w", err)
		}
	}

	// The alt screen owns the terminal, so logs go to a file
	logPath := cfg.Log.File
	if logPath == "" {
		logPath = filepath.Join(dataDir, "taskly.log")
	}
	logFile, err := logging.OpenFile(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := logging.New(cfg.Log, logFile).With().Str("component", "tui").Logger()

	dbPath, err := db.DefaultPath(dataDir)
	if err != nil {
		return err
	}
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	session, store, err := openBackend(cfg, database)
	if err != nil {
		return err
	}
	log.Info().Str("mode", cfg.Client.Mode).Str("server", cfg.Client.ServerURL).Msg("starting")

	app := ui.NewApp(ui.Options{
		Session: session,
		Store:   store,
		Timeout: cfg.Client.Timeout,
		Logger:  log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// openBackend picks the account provider and task store for the client mode.
// The local database always caches the session token.
func openBackend(cfg *config.Config, database *db.DB) (*auth.Session, tasks.Store, error) {
	if cfg.Client.Mode == config.ModeLocal {
		secret, err := localSecret(database)
		if err != nil {
			return nil, nil, fmt.Errorf("load local secret: %w", err)
		}
		service := auth.NewService(
			database,
			auth.NewPasswordHasher(auth.DefaultBcryptCost),
			auth.NewJWTManager(auth.JWTConfig{Secret: secret, TokenTTL: cfg.Server.TokenTTL}),
		)
		return auth.NewSession(service, database), database, nil
	}

	client := remote.New(cfg.Client.ServerURL, cfg.Client.Timeout)
	session := auth.NewSession(client, database)
	return session, client.TaskStore(session), nil
}

func localSecret(database *db.DB) (string, error) {
	secret, err := database.GetSetting(localSecretKey)
	if err != nil || secret != "" {
		return secret, err
	}
	secret = uuid.NewString() + uuid.NewString()
	if err := database.SetSetting(localSecretKey, secret); err != nil {
		return "", err
	}
	return secret, nil
}
