package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskly/internal/config"
	"github.com/tgienger/taskly/internal/db"
	"github.com/tgienger/taskly/internal/remote"
	"gopkg.in/yaml.v3"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestLocalSecret(t *testing.T) {
	database := newTestDB(t)

	first, err := localSecret(database)
	require.NoError(t, err)
	assert.Len(t, first, 72)

	second, err := localSecret(database)
	require.NoError(t, err)
	assert.Equal(t, first, second, "secret is generated once")
}

func TestOpenBackend(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		database := newTestDB(t)
		cfg := config.DefaultConfig()
		cfg.Client.Mode = config.ModeLocal

		session, store, err := openBackend(cfg, database)
		require.NoError(t, err)
		assert.Same(t, database, store)

		id, err := session.SignUp(context.Background(), "local@example.com", "secret1")
		require.NoError(t, err)

		// the token survives in the settings table
		token, err := database.GetSetting("session_token")
		require.NoError(t, err)
		assert.Equal(t, id.Token, token)
	})

	t.Run("remote", func(t *testing.T) {
		database := newTestDB(t)
		cfg := config.DefaultConfig()

		_, store, err := openBackend(cfg, database)
		require.NoError(t, err)
		assert.IsType(t, &remote.TaskStore{}, store)
	})
}

func TestOpenServerStore_SQLite(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.SQLitePath = filepath.Join(t.TempDir(), "nested", "server.db")

	store, err := openServerStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.close()

	ctx := context.Background()
	_, err = store.tasks.CreateTask(ctx, "owner-1", "from the server")
	require.NoError(t, err)
	got, err := store.tasks.ListTasks(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = os.Stat(cfg.SQLitePath)
	assert.NoError(t, err)
}

func TestShowConfig_RedactsSecret(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.JWTSecret = "super-secret"

	var buf bytes.Buffer
	require.NoError(t, showConfig(&buf, cfg))

	out := buf.String()
	assert.NotContains(t, out, "super-secret")
	assert.Contains(t, out, redacted)
	assert.Equal(t, "super-secret", cfg.Server.JWTSecret, "caller's config untouched")

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &parsed))
	assert.Contains(t, parsed, "server")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskly", "config.yaml")
	configPath = path
	t.Cleanup(func() { configPath = "" })

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runConfigInit(cmd, nil))
	assert.Contains(t, out.String(), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Client, cfg.Client)

	// refuses to overwrite
	assert.Error(t, runConfigInit(cmd, nil))
}

func TestVersionCommand(t *testing.T) {
	root := &cobra.Command{Use: "taskly", Version: "1.2.3"}
	root.AddCommand(versionCmd)
	t.Cleanup(func() { root.RemoveCommand(versionCmd) })

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "taskly 1.2.3\n", out.String())
}
