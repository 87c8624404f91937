package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const projectYAML = `cluster:
  host: dwhcluster.abc123.us-west-2.redshift.amazonaws.com
  port: 5439
  database: dev
  username: awsuser
  password: yaml-secret
iam_role:
  arn: arn:aws:iam::123456789012:role/dwhRole
s3:
  log_data: s3://udacity-dend/log_data
  log_jsonpath: s3://udacity-dend/log_json_path.json
  song_data: s3://udacity-dend/song_data
timeout: 30m
statement_timeout: 5m
`

// isolateEnv clears every variable the resolvers read so the developer's
// shell does not leak into a test. Values are restored on cleanup.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE", "DATABASE_URL",
		"AWS_REGION", "AWS_DEFAULT_REGION",
		envRoleARN, envLogData, envLogJSONPath, envSongData, envRegion, envDialect,
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("PGPASSFILE", filepath.Join(t.TempDir(), "missing-pgpass"))
	t.Setenv("DWHETL_NON_INTERACTIVE", "1")

	original := discoverRegion
	discoverRegion = func(context.Context) string { return "" }
	t.Cleanup(func() { discoverRegion = original })
}

// writeProject creates a project directory holding dwh.yaml.
func writeProject(t *testing.T, yamlContent string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dwh.yaml"), []byte(yamlContent), 0o644))
	return dir
}

// newETLCommand builds a command with the ETL flags registered and argv parsed.
func newETLCommand(t *testing.T, withReset bool, argv ...string) (*cobra.Command, *etlFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "run [project_dir]"}
	cmd.Flags().Bool("help", false, "")
	cmd.Flags().BoolP("verbose", "v", false, "")
	f := &etlFlags{}
	registerETLFlags(cmd, f, withReset)
	require.NoError(t, cmd.Flags().Parse(argv))
	return cmd, f
}
