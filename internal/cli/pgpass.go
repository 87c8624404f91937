package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/jackc/pgpassfile"

	"github.com/sparkify-data/dwhetl/internal/ui"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// Replaced in tests.
var (
	isInteractive  = ui.IsInteractive
	promptPassword = ui.PromptPassword
)

// pgpassPath returns the platform-appropriate .pgpass file path.
func pgpassPath() string {
	if custom := os.Getenv("PGPASSFILE"); custom != "" {
		return custom
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "postgresql", "pgpass.conf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pgpass")
}

// hasPgpassEntry reports whether .pgpass holds a password for cfg. Both
// drivers read .pgpass themselves, so a match means no prompt is needed.
func hasPgpassEntry(cfg *dwhetl.ConnectionConfig) bool {
	path := pgpassPath()
	if path == "" {
		return false
	}
	pf, err := pgpassfile.ReadPassfile(path)
	if err != nil {
		return false
	}
	return pf.FindPassword(cfg.Host, strconv.Itoa(cfg.Port), cfg.Database, cfg.Username) != ""
}

// ensurePassword prompts for a password when standard authentication has
// none from flags, environment, dwh.yaml or .pgpass and a terminal is attached.
// Non-interactive runs connect without one and let the server decide.
func ensurePassword(cfg *dwhetl.ConnectionConfig) error {
	if cfg.AuthMethod != dwhetl.AuthMethodStandard || cfg.Password != "" || cfg.Host == "" {
		return nil
	}
	if hasPgpassEntry(cfg) || !isInteractive() {
		return nil
	}
	password, err := promptPassword(cfg.Username, cfg.Host)
	if err != nil {
		return err
	}
	cfg.Password = password
	return nil
}
