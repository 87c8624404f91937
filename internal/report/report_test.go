package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkify-data/dwhetl/internal/catalog"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

func testPlan(t *testing.T) []dwhetl.Statement {
	t.Helper()
	cat, err := catalog.New(dwhetl.CatalogConfig{
		EventsLocation:       "s3://udacity-dend/log_data",
		SongsLocation:        "s3://udacity-dend/song_data",
		EventsPathDescriptor: "s3://udacity-dend/log_json_path.json",
		RoleARN:              "arn:aws:iam::123456789012:role/dwhRole",
	})
	require.NoError(t, err)
	return cat.Plan(false)
}

func TestWritePlan(t *testing.T) {
	var buf bytes.Buffer
	WritePlan(&buf, testPlan(t))
	out := buf.String()

	assert.Contains(t, out, "DEPENDS ON")
	assert.Contains(t, out, "bulk-load")
	assert.Contains(t, out, "staging_events, staging_songs")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header, separator, 16 statements
	assert.Len(t, lines, 18)
	assert.Contains(t, lines[len(lines)-1], "time")
	assert.Contains(t, lines[len(lines)-1], "songplays")
}

func TestWritePlanSQL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlanSQL(&buf, testPlan(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "-- [1/16] drop:staging_events\nDROP TABLE IF EXISTS staging_events;\n"))
	assert.Contains(t, out, "-- [16/16] transform:time\nINSERT INTO \"time\"")
	assert.Equal(t, 16, strings.Count(out, "-- ["))
}

func TestWriteSummary(t *testing.T) {
	r := dwhetl.Report{
		Results: []dwhetl.StatementResult{
			{Name: "songplays", Table: "songplays", Phase: dwhetl.PhaseTransform, RowsAffected: 333, Duration: 1500 * time.Millisecond},
			{Name: "users", Table: "users", Phase: dwhetl.PhaseTransform, RowsAffected: 104, Duration: 20 * time.Millisecond},
		},
		Duration: 2 * time.Second,
	}

	var buf bytes.Buffer
	WriteSummary(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "songplays")
	assert.Contains(t, out, "333")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "20ms")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "437")
}
