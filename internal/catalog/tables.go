package catalog

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// Table names managed by the catalog.
const (
	TableStagingEvents = "staging_events"
	TableStagingSongs  = "staging_songs"
	TableSongplays     = "songplays"
	TableUsers         = "users"
	TableSongs         = "songs"
	TableArtists       = "artists"
	TableTime          = "time"
)

// reservedNames are table names that collide with SQL keywords and must be
// quoted wherever they appear.
var reservedNames = map[string]bool{
	TableTime: true,
}

// ident renders a table name, quoting it only when it is a keyword.
func ident(name string) string {
	if reservedNames[name] {
		return pq.QuoteIdentifier(name)
	}
	return name
}

type column struct {
	name    string
	sqlType string
	notNull bool

	// jsonKey is the source field of a staging column (PostgreSQL dialect).
	jsonKey string
	// epochMillis marks a TIMESTAMP column stored as epoch milliseconds in JSON.
	epochMillis bool
}

type foreignKey struct {
	column string
	table  string
}

type tableDef struct {
	name        string
	kind        dwhetl.TableKind
	ifNotExists bool
	identity    string // identity column name, if any
	columns     []column
	primaryKey  string
	foreignKeys []foreignKey
}

// references returns the tables a table's foreign keys point to.
func (t tableDef) references() []string {
	if len(t.foreignKeys) == 0 {
		return nil
	}
	refs := make([]string, 0, len(t.foreignKeys))
	for _, fk := range t.foreignKeys {
		refs = append(refs, fk.table)
	}
	return refs
}

var stagingEventsTable = tableDef{
	name: TableStagingEvents,
	kind: dwhetl.TableStaging,
	columns: []column{
		{name: "artist", sqlType: "VARCHAR", jsonKey: "artist"},
		{name: "auth", sqlType: "VARCHAR", jsonKey: "auth"},
		{name: "firstName", sqlType: "VARCHAR", jsonKey: "firstName"},
		{name: "gender", sqlType: "VARCHAR", jsonKey: "gender"},
		{name: "itemInSession", sqlType: "INTEGER", jsonKey: "itemInSession"},
		{name: "lastName", sqlType: "VARCHAR", jsonKey: "lastName"},
		{name: "length", sqlType: "FLOAT", jsonKey: "length"},
		{name: "level", sqlType: "VARCHAR", jsonKey: "level"},
		{name: "location", sqlType: "VARCHAR", jsonKey: "location"},
		{name: "method", sqlType: "VARCHAR", jsonKey: "method"},
		{name: "page", sqlType: "VARCHAR", jsonKey: "page"},
		{name: "registration", sqlType: "FLOAT", jsonKey: "registration"},
		{name: "sessionId", sqlType: "INTEGER", jsonKey: "sessionId"},
		{name: "song", sqlType: "VARCHAR", jsonKey: "song"},
		{name: "status", sqlType: "INTEGER", jsonKey: "status"},
		{name: "ts", sqlType: "TIMESTAMP", jsonKey: "ts", epochMillis: true},
		{name: "userAgent", sqlType: "VARCHAR", jsonKey: "userAgent"},
		{name: "userId", sqlType: "INTEGER", jsonKey: "userId"},
	},
}

var stagingSongsTable = tableDef{
	name: TableStagingSongs,
	kind: dwhetl.TableStaging,
	columns: []column{
		{name: "num_songs", sqlType: "INTEGER", jsonKey: "num_songs"},
		{name: "artist_id", sqlType: "VARCHAR", jsonKey: "artist_id"},
		{name: "artist_latitude", sqlType: "FLOAT", jsonKey: "artist_latitude"},
		{name: "artist_longitude", sqlType: "FLOAT", jsonKey: "artist_longitude"},
		{name: "artist_location", sqlType: "VARCHAR", jsonKey: "artist_location"},
		{name: "artist_name", sqlType: "VARCHAR", jsonKey: "artist_name"},
		{name: "song_id", sqlType: "VARCHAR", jsonKey: "song_id"},
		{name: "title", sqlType: "VARCHAR", jsonKey: "title"},
		{name: "duration", sqlType: "FLOAT", jsonKey: "duration"},
		{name: "year", sqlType: "INTEGER", jsonKey: "year"},
	},
}

var usersTable = tableDef{
	name:        TableUsers,
	kind:        dwhetl.TableDimension,
	ifNotExists: true,
	columns: []column{
		{name: "user_id", sqlType: "INTEGER", notNull: true},
		{name: "first_name", sqlType: "VARCHAR"},
		{name: "last_name", sqlType: "VARCHAR"},
		{name: "gender", sqlType: "VARCHAR"},
		{name: "level", sqlType: "VARCHAR"},
	},
	primaryKey: "user_id",
}

var songsTable = tableDef{
	name:        TableSongs,
	kind:        dwhetl.TableDimension,
	ifNotExists: true,
	columns: []column{
		{name: "song_id", sqlType: "VARCHAR", notNull: true},
		{name: "title", sqlType: "VARCHAR"},
		{name: "artist_id", sqlType: "VARCHAR"},
		{name: "year", sqlType: "INTEGER"},
		{name: "duration", sqlType: "FLOAT"},
	},
	primaryKey: "song_id",
}

var artistsTable = tableDef{
	name:        TableArtists,
	kind:        dwhetl.TableDimension,
	ifNotExists: true,
	columns: []column{
		{name: "artist_id", sqlType: "VARCHAR", notNull: true},
		{name: "name", sqlType: "VARCHAR"},
		{name: "location", sqlType: "VARCHAR"},
		{name: "latitude", sqlType: "FLOAT"},
		{name: "longitude", sqlType: "FLOAT"},
	},
	primaryKey: "artist_id",
}

var timeTable = tableDef{
	name:        TableTime,
	kind:        dwhetl.TableDimension,
	ifNotExists: true,
	columns: []column{
		{name: "start_time", sqlType: "TIMESTAMP", notNull: true},
		{name: "hour", sqlType: "INTEGER"},
		{name: "day", sqlType: "INTEGER"},
		{name: "week", sqlType: "INTEGER"},
		{name: "month", sqlType: "INTEGER"},
		{name: "year", sqlType: "INTEGER"},
		{name: "weekday", sqlType: "INTEGER"},
	},
	primaryKey: "start_time",
}

var songplaysTable = tableDef{
	name:        TableSongplays,
	kind:        dwhetl.TableFact,
	ifNotExists: true,
	identity:    "songplay_id",
	columns: []column{
		{name: "start_time", sqlType: "TIMESTAMP", notNull: true},
		{name: "user_id", sqlType: "INTEGER", notNull: true},
		{name: "level", sqlType: "VARCHAR"},
		{name: "song_id", sqlType: "VARCHAR"},
		{name: "artist_id", sqlType: "VARCHAR"},
		{name: "session_id", sqlType: "INTEGER"},
		{name: "location", sqlType: "VARCHAR"},
		{name: "user_agent", sqlType: "VARCHAR"},
	},
	primaryKey: "songplay_id",
	foreignKeys: []foreignKey{
		{column: "start_time", table: TableTime},
		{column: "user_id", table: TableUsers},
		{column: "song_id", table: TableSongs},
		{column: "artist_id", table: TableArtists},
	},
}

// createOrder lists tables so that every referenced table precedes the
// tables referencing it.
var createOrder = []tableDef{
	stagingEventsTable,
	stagingSongsTable,
	usersTable,
	songsTable,
	artistsTable,
	timeTable,
	songplaysTable,
}

// dropOrder lists tables so that the fact table goes before the dimensions
// it references.
var dropOrder = []tableDef{
	stagingEventsTable,
	stagingSongsTable,
	songplaysTable,
	usersTable,
	songsTable,
	artistsTable,
	timeTable,
}

func renderDrop(t tableDef) string {
	return "DROP TABLE IF EXISTS " + ident(t.name)
}

// renderCreate renders CREATE TABLE for a dialect. Key constraints are only
// emitted for Redshift, which records but does not enforce them.
func renderCreate(t tableDef, dialect dwhetl.Dialect) string {
	var b strings.Builder

	b.WriteString("CREATE TABLE ")
	if t.ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(ident(t.name))
	b.WriteString(" (\n")

	var lines []string
	if t.identity != "" {
		if dialect == dwhetl.DialectRedshift {
			lines = append(lines, fmt.Sprintf("    %s INTEGER IDENTITY(0,1) NOT NULL", t.identity))
		} else {
			lines = append(lines, fmt.Sprintf("    %s INTEGER GENERATED BY DEFAULT AS IDENTITY", t.identity))
		}
	}
	for _, c := range t.columns {
		line := fmt.Sprintf("    %s %s", c.name, c.sqlType)
		if c.notNull {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}

	if dialect == dwhetl.DialectRedshift {
		if t.primaryKey != "" {
			lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", t.primaryKey))
		}
		for _, fk := range t.foreignKeys {
			lines = append(lines, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)", fk.column, ident(fk.table), fk.column))
		}
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String()
}
