package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

func TestPgpassPath_CustomEnv(t *testing.T) {
	t.Setenv("PGPASSFILE", "/custom/path/pgpass")
	assert.Equal(t, "/custom/path/pgpass", pgpassPath())
}

func writePgpass(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pgpass")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PGPASSFILE", path)
}

func TestHasPgpassEntry(t *testing.T) {
	writePgpass(t, "dwhcluster.example.com:5439:dev:awsuser:secret\n*:*:*:etl:other\n")

	tests := []struct {
		name string
		cfg  dwhetl.ConnectionConfig
		want bool
	}{
		{"exact match", dwhetl.ConnectionConfig{Host: "dwhcluster.example.com", Port: 5439, Database: "dev", Username: "awsuser"}, true},
		{"wildcard user", dwhetl.ConnectionConfig{Host: "localhost", Port: 5432, Database: "sparkify", Username: "etl"}, true},
		{"other port", dwhetl.ConnectionConfig{Host: "dwhcluster.example.com", Port: 5440, Database: "dev", Username: "awsuser"}, false},
		{"other user", dwhetl.ConnectionConfig{Host: "dwhcluster.example.com", Port: 5439, Database: "dev", Username: "admin"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasPgpassEntry(&tt.cfg))
		})
	}
}

func TestHasPgpassEntry_MissingFile(t *testing.T) {
	t.Setenv("PGPASSFILE", filepath.Join(t.TempDir(), "nope"))
	assert.False(t, hasPgpassEntry(&dwhetl.ConnectionConfig{Host: "localhost", Port: 5439}))
}

func TestEnsurePassword(t *testing.T) {
	tests := []struct {
		name        string
		cfg         dwhetl.ConnectionConfig
		interactive bool
		pgpass      string
		promptErr   error
		wantPrompt  bool
		wantPass    string
		wantErr     bool
	}{
		{
			name:        "prompts when nothing provides a password",
			cfg:         dwhetl.ConnectionConfig{Host: "localhost", Port: 5439, Database: "dev", Username: "awsuser"},
			interactive: true,
			wantPrompt:  true,
			wantPass:    "typed",
		},
		{
			name:        "password already set",
			cfg:         dwhetl.ConnectionConfig{Host: "localhost", Port: 5439, Username: "awsuser", Password: "env"},
			interactive: true,
			wantPass:    "env",
		},
		{
			name:        "IAM needs no password",
			cfg:         dwhetl.ConnectionConfig{Host: "localhost", Port: 5439, Username: "awsuser", AuthMethod: dwhetl.AuthMethodAWSIAM},
			interactive: true,
		},
		{
			name:        ".pgpass entry",
			cfg:         dwhetl.ConnectionConfig{Host: "localhost", Port: 5439, Database: "dev", Username: "awsuser"},
			interactive: true,
			pgpass:      "localhost:5439:dev:awsuser:stored\n",
		},
		{
			name: "non-interactive",
			cfg:  dwhetl.ConnectionConfig{Host: "localhost", Port: 5439, Username: "awsuser"},
		},
		{
			name:        "prompt failure",
			cfg:         dwhetl.ConnectionConfig{Host: "localhost", Port: 5439, Username: "awsuser"},
			interactive: true,
			promptErr:   errors.New("failed to read password: EOF"),
			wantPrompt:  true,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.pgpass != "" {
				writePgpass(t, tt.pgpass)
			} else {
				t.Setenv("PGPASSFILE", filepath.Join(t.TempDir(), "none"))
			}

			origInteractive, origPrompt := isInteractive, promptPassword
			t.Cleanup(func() { isInteractive, promptPassword = origInteractive, origPrompt })

			prompted := false
			isInteractive = func() bool { return tt.interactive }
			promptPassword = func(user, host string) (string, error) {
				prompted = true
				assert.Equal(t, tt.cfg.Username, user)
				assert.Equal(t, tt.cfg.Host, host)
				return "typed", tt.promptErr
			}

			cfg := tt.cfg
			err := ensurePassword(&cfg)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPass, cfg.Password)
			}
			assert.Equal(t, tt.wantPrompt, prompted)
		})
	}
}
