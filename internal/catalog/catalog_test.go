package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEvents   = "s3://udacity-dend/log_data"
	testSongs    = "s3://udacity-dend/song_data"
	testRole     = "arn:aws:iam::123456789012:role/dwhRole"
	testJSONPath = "s3://udacity-dend/log_json_path.json"
)

func redshiftConfig() Config {
	return Config{
		Dialect:              dwhetl.DialectRedshift,
		EventsLocation:       testEvents,
		SongsLocation:        testSongs,
		RoleARN:              testRole,
		EventsPathDescriptor: testJSONPath,
		Region:               "us-west-2",
	}
}

func names(stmts []dwhetl.Statement) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.Name
	}
	return out
}

func TestNew_Counts(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	assert.Len(t, c.Drops(), 7)
	assert.Len(t, c.Creates(), 7)
	assert.Len(t, c.BulkLoads(), 2)
	assert.Len(t, c.Transforms(), 5)
	assert.Len(t, c.Plan(true), 21)
	assert.Len(t, c.Plan(false), 16)
}

func TestNew_Order(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"staging_events", "staging_songs", "songplays", "users", "songs", "artists", "time"},
		names(c.Drops()))
	assert.Equal(t,
		[]string{"staging_events", "staging_songs", "users", "songs", "artists", "time", "songplays"},
		names(c.Creates()))
	assert.Equal(t,
		[]string{"staging_events", "staging_songs"},
		names(c.BulkLoads()))
	assert.Equal(t,
		[]string{"songplays", "users", "songs", "artists", "time"},
		names(c.Transforms()))
	assert.Equal(t,
		[]string{"staging_events", "staging_songs"},
		names(c.StagingDrops()))
}

func TestNew_Phases(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	for _, s := range c.Drops() {
		assert.Equal(t, dwhetl.PhaseDrop, s.Phase, s.Name)
		assert.True(t, strings.HasPrefix(s.SQL, "DROP TABLE IF EXISTS "), s.SQL)
	}
	for _, s := range c.Creates() {
		assert.Equal(t, dwhetl.PhaseCreate, s.Phase, s.Name)
	}
	for _, s := range c.BulkLoads() {
		assert.Equal(t, dwhetl.PhaseBulkLoad, s.Phase, s.Name)
	}
	for _, s := range c.Transforms() {
		assert.Equal(t, dwhetl.PhaseTransform, s.Phase, s.Name)
		assert.True(t, strings.HasPrefix(s.SQL, "INSERT INTO "), s.SQL)
	}
}

func TestCreates_IfNotExistsOnlyForStarSchema(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	for _, s := range c.Creates() {
		if s.Kind == dwhetl.TableStaging {
			assert.True(t, strings.HasPrefix(s.SQL, "CREATE TABLE "+s.Table+" ("), s.SQL)
			assert.NotContains(t, s.SQL, "IF NOT EXISTS")
		} else {
			assert.Contains(t, s.SQL, "CREATE TABLE IF NOT EXISTS ", s.Name)
		}
	}
}

func TestCreates_Constraints(t *testing.T) {
	rs, err := New(redshiftConfig())
	require.NoError(t, err)

	pgCfg := redshiftConfig()
	pgCfg.Dialect = dwhetl.DialectPostgres
	pg, err := New(pgCfg)
	require.NoError(t, err)

	rsSongplays := rs.Creates()[6]
	assert.Contains(t, rsSongplays.SQL, "songplay_id INTEGER IDENTITY(0,1) NOT NULL")
	assert.Contains(t, rsSongplays.SQL, "PRIMARY KEY (songplay_id)")
	assert.Contains(t, rsSongplays.SQL, `FOREIGN KEY (start_time) REFERENCES "time" (start_time)`)
	assert.Contains(t, rsSongplays.SQL, "FOREIGN KEY (user_id) REFERENCES users (user_id)")
	assert.ElementsMatch(t, []string{"time", "users", "songs", "artists"}, rsSongplays.DependsOn)

	pgSongplays := pg.Creates()[6]
	assert.Contains(t, pgSongplays.SQL, "songplay_id INTEGER GENERATED BY DEFAULT AS IDENTITY")
	assert.NotContains(t, pgSongplays.SQL, "PRIMARY KEY")
	assert.NotContains(t, pgSongplays.SQL, "FOREIGN KEY")

	assert.Equal(t, `DROP TABLE IF EXISTS "time"`, rs.Drops()[6].SQL)
}

func TestBulkLoads_RedshiftFullText(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	loads := c.BulkLoads()
	assert.Equal(t,
		"COPY staging_events FROM 's3://udacity-dend/log_data' IAM_ROLE 'arn:aws:iam::123456789012:role/dwhRole' "+
			"REGION 'us-west-2' FORMAT AS JSON 's3://udacity-dend/log_json_path.json' TIMEFORMAT AS 'epochmillisecs'",
		loads[0].SQL)
	assert.Equal(t,
		"COPY staging_songs FROM 's3://udacity-dend/song_data' IAM_ROLE 'arn:aws:iam::123456789012:role/dwhRole' "+
			"REGION 'us-west-2' FORMAT AS JSON 'auto'",
		loads[1].SQL)
}

func TestBulkLoads_ContainValuesVerbatim(t *testing.T) {
	cfg := Config{
		EventsLocation:       "s3://bucket-a/events/2018/11",
		SongsLocation:        "s3://bucket-b/songs/A/B",
		RoleARN:              "arn:aws:iam::000000000000:role/loader",
		EventsPathDescriptor: "s3://bucket-a/paths.json",
	}
	c, err := New(cfg)
	require.NoError(t, err)

	loads := c.BulkLoads()
	for _, v := range []string{cfg.EventsLocation, cfg.RoleARN, cfg.EventsPathDescriptor} {
		assert.Contains(t, loads[0].SQL, "'"+v+"'")
	}
	for _, v := range []string{cfg.SongsLocation, cfg.RoleARN} {
		assert.Contains(t, loads[1].SQL, "'"+v+"'")
	}
	assert.NotContains(t, loads[0].SQL, cfg.SongsLocation)
	assert.NotContains(t, loads[1].SQL, cfg.EventsLocation)
	assert.NotContains(t, loads[1].SQL, cfg.EventsPathDescriptor)

	// default region applied
	assert.Contains(t, loads[0].SQL, "REGION 'us-west-2'")
	assert.Equal(t, dwhetl.DefaultRegion, c.Config().Region)
}

func TestBulkLoads_QuotesAreEscaped(t *testing.T) {
	cfg := redshiftConfig()
	cfg.SongsLocation = "s3://bucket/o'neil"
	c, err := New(cfg)
	require.NoError(t, err)

	assert.Contains(t, c.BulkLoads()[1].SQL, "FROM 's3://bucket/o''neil' ")
}

func TestBulkLoads_Postgres(t *testing.T) {
	c, err := New(Config{
		Dialect:        dwhetl.DialectPostgres,
		EventsLocation: "/data/events.json",
		SongsLocation:  "/data/songs.json",
	})
	require.NoError(t, err)

	loads := c.BulkLoads()
	require.Len(t, loads, 2)

	events := loads[0].SQL
	assert.True(t, strings.HasPrefix(events, "INSERT INTO staging_events (artist, auth, firstName,"), events)
	assert.Contains(t, events, "pg_read_file('/data/events.json')")
	assert.Contains(t, events, "to_timestamp(NULLIF(j->>'ts', '')::BIGINT / 1000.0) AT TIME ZONE 'UTC'")
	assert.Contains(t, events, "NULLIF(j->>'userId', '')::INTEGER")
	assert.Contains(t, events, "j->>'firstName'")
	assert.NotContains(t, events, "IAM_ROLE")

	songs := loads[1].SQL
	assert.Contains(t, songs, "pg_read_file('/data/songs.json')")
	assert.Contains(t, songs, "NULLIF(j->>'duration', '')::FLOAT")
}

func TestTransforms_Dependencies(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	tr := c.Transforms()
	assert.Equal(t, []string{"songplays"}, tr[4].DependsOn)
	assert.Contains(t, tr[4].SQL, "FROM songplays")
	assert.Contains(t, tr[0].SQL, "ON e.song = s.title")
	assert.Contains(t, tr[0].SQL, "AND e.artist = s.artist_name")
	assert.Contains(t, tr[0].SQL, "WHERE e.page = 'NextSong'")
	assert.Contains(t, tr[1].SQL, "SELECT DISTINCT userId")
	assert.Contains(t, tr[1].SQL, "page = 'NextSong'")
}

func TestValidateOrder_RejectsTimeBeforeSongplays(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	tr := c.Transforms()
	require.NoError(t, ValidateOrder(tr))

	reordered := []dwhetl.Statement{tr[4], tr[0], tr[1], tr[2], tr[3]}
	err = ValidateOrder(reordered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dwhetl.ErrStatementOrder))
	assert.Contains(t, err.Error(), "transform:time (position 1) depends on songplays")
}

func TestValidateOrder_RejectsFactCreatedBeforeDimension(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	cr := c.Creates()
	reordered := append([]dwhetl.Statement{cr[6]}, cr[:6]...)
	assert.ErrorIs(t, ValidateOrder(reordered), dwhetl.ErrStatementOrder)
}

func TestValidateOrder_CrossPhaseDependencies(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	// Transforms depend on staging tables that a later plan never rewrites.
	assert.NoError(t, ValidateOrder(c.Plan(true)))
	assert.NoError(t, ValidateOrder(nil))
}

func TestValidateOrder_RejectsTransformsBeforeBulkLoads(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	err = ValidateOrder(append(c.Transforms(), c.BulkLoads()...))
	require.Error(t, err)
	assert.ErrorIs(t, err, dwhetl.ErrStatementOrder)
	assert.Contains(t, err.Error(), "transform:songplays (position 1) depends on staging_events")
	assert.Contains(t, err.Error(), "bulk-load:staging_events (position 6)")
}

func TestValidateOrder_CreateDependsOnExistenceOnly(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	// songplays is created referencing "time"; populating "time" later is fine.
	stmts := append(c.Creates(), c.Transforms()...)
	assert.NoError(t, ValidateOrder(stmts))

	// A transform never satisfies a create, and a create never satisfies a transform.
	tr := c.Transforms()
	cr := c.Creates()
	assert.NoError(t, ValidateOrder([]dwhetl.Statement{tr[4], cr[6]}), "time insert before songplays create")
	assert.NoError(t, ValidateOrder([]dwhetl.Statement{cr[6], tr[4]}), "songplays create before time insert")
	assert.ErrorIs(t, ValidateOrder([]dwhetl.Statement{tr[4], tr[0]}), dwhetl.ErrStatementOrder)
}

func TestValidateOrder_SlicedListPasses(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	// Dependencies outside the list are not checked.
	assert.NoError(t, ValidateOrder(c.Transforms()[4:]))
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing role", func(c *Config) { c.RoleARN = "" }},
		{"missing events", func(c *Config) { c.EventsLocation = "" }},
		{"missing songs", func(c *Config) { c.SongsLocation = "" }},
		{"missing jsonpath", func(c *Config) { c.EventsPathDescriptor = "" }},
		{"backslash", func(c *Config) { c.EventsLocation = `s3://x\'; DROP TABLE users; --` }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := redshiftConfig()
			tt.mutate(&cfg)
			c, err := New(cfg)
			assert.Nil(t, c)
			require.Error(t, err)
			assert.ErrorIs(t, err, dwhetl.ErrInvalidConfig)
		})
	}
}

func TestStatements_AreCopies(t *testing.T) {
	c, err := New(redshiftConfig())
	require.NoError(t, err)

	tr := c.Transforms()
	tr[4].DependsOn[0] = "mutated"
	tr[0].SQL = "mutated"

	fresh := c.Transforms()
	assert.Equal(t, "songplays", fresh[4].DependsOn[0])
	assert.NotEqual(t, "mutated", fresh[0].SQL)
}
