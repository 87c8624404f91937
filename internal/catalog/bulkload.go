package catalog

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// renderCopyEvents renders the Redshift COPY of the event logs. Field
// mapping comes from the JSONPaths descriptor; ts is epoch milliseconds.
func renderCopyEvents(cfg Config) string {
	return fmt.Sprintf(
		"COPY %s FROM %s IAM_ROLE %s REGION %s FORMAT AS JSON %s TIMEFORMAT AS 'epochmillisecs'",
		TableStagingEvents,
		pq.QuoteLiteral(cfg.EventsLocation),
		pq.QuoteLiteral(cfg.RoleARN),
		pq.QuoteLiteral(cfg.Region),
		pq.QuoteLiteral(cfg.EventsPathDescriptor),
	)
}

// renderCopySongs renders the Redshift COPY of the song metadata with
// field mapping inferred from JSON keys.
func renderCopySongs(cfg Config) string {
	return fmt.Sprintf(
		"COPY %s FROM %s IAM_ROLE %s REGION %s FORMAT AS JSON 'auto'",
		TableStagingSongs,
		pq.QuoteLiteral(cfg.SongsLocation),
		pq.QuoteLiteral(cfg.RoleARN),
		pq.QuoteLiteral(cfg.Region),
	)
}

// renderFileLoad renders the PostgreSQL stand-in for COPY: one INSERT ... SELECT
// that reads a newline-delimited JSON file on the database server and maps
// each JSON key to its staging column. Empty strings become NULL for
// non-text columns.
func renderFileLoad(t tableDef, location string) string {
	names := make([]string, 0, len(t.columns))
	exprs := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		names = append(names, c.name)
		exprs = append(exprs, "    "+jsonExpr(c))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s)\nSELECT\n%s\nFROM (\n    SELECT line::jsonb AS j\n    FROM regexp_split_to_table(pg_read_file(%s), E'\\n') AS line\n    WHERE btrim(line) <> ''\n) AS src",
		t.name,
		strings.Join(names, ", "),
		strings.Join(exprs, ",\n"),
		pq.QuoteLiteral(location),
	)
}

func jsonExpr(c column) string {
	field := fmt.Sprintf("j->>%s", pq.QuoteLiteral(c.jsonKey))
	switch {
	case c.epochMillis:
		return fmt.Sprintf("to_timestamp(NULLIF(%s, '')::BIGINT / 1000.0) AT TIME ZONE 'UTC'", field)
	case c.sqlType == "VARCHAR":
		return field
	default:
		return fmt.Sprintf("NULLIF(%s, '')::%s", field, c.sqlType)
	}
}

func renderBulkLoads(cfg Config) []dwhetl.Statement {
	var eventsSQL, songsSQL string
	if cfg.Dialect == dwhetl.DialectPostgres {
		eventsSQL = renderFileLoad(stagingEventsTable, cfg.EventsLocation)
		songsSQL = renderFileLoad(stagingSongsTable, cfg.SongsLocation)
	} else {
		eventsSQL = renderCopyEvents(cfg)
		songsSQL = renderCopySongs(cfg)
	}

	return []dwhetl.Statement{
		{
			Name:  TableStagingEvents,
			Table: TableStagingEvents,
			Kind:  dwhetl.TableStaging,
			Phase: dwhetl.PhaseBulkLoad,
			SQL:   eventsSQL,
		},
		{
			Name:  TableStagingSongs,
			Table: TableStagingSongs,
			Kind:  dwhetl.TableStaging,
			Phase: dwhetl.PhaseBulkLoad,
			SQL:   songsSQL,
		},
	}
}
