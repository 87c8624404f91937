package catalog

import "github.com/sparkify-data/dwhetl/pkg/dwhetl"

// Insert-from-select statements that reshape staging data into the star schema.
// Every insert appends; DISTINCT deduplicates only within one result set.

const (
	// Inner join on exact, case-sensitive title and artist name.
	songplaysInsert = `INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
SELECT e.ts,
       e.userId,
       e.level,
       s.song_id,
       s.artist_id,
       e.sessionId,
       e.location,
       e.userAgent
FROM staging_events e
JOIN staging_songs s
  ON e.song = s.title
 AND e.artist = s.artist_name
WHERE e.page = 'NextSong'`

	// No conflict resolution: a user whose level changes across events yields
	// one row per distinct level, in no defined order.
	usersInsert = `INSERT INTO users (user_id, first_name, last_name, gender, level)
SELECT DISTINCT userId,
       firstName,
       lastName,
       gender,
       level
FROM staging_events
WHERE userId IS NOT NULL
  AND page = 'NextSong'`

	songsInsert = `INSERT INTO songs (song_id, title, artist_id, year, duration)
SELECT DISTINCT song_id,
       title,
       artist_id,
       year,
       duration
FROM staging_songs
WHERE song_id IS NOT NULL`

	artistsInsert = `INSERT INTO artists (artist_id, name, location, latitude, longitude)
SELECT DISTINCT artist_id,
       artist_name,
       artist_location,
       artist_latitude,
       artist_longitude
FROM staging_songs
WHERE artist_id IS NOT NULL`

	// Reads songplays, so it must run after songplaysInsert.
	timeInsert = `INSERT INTO "time" (start_time, hour, day, week, month, year, weekday)
SELECT DISTINCT start_time,
       EXTRACT(hour FROM start_time),
       EXTRACT(day FROM start_time),
       EXTRACT(week FROM start_time),
       EXTRACT(month FROM start_time),
       EXTRACT(year FROM start_time),
       EXTRACT(dow FROM start_time)
FROM songplays`
)

func transformStatements() []dwhetl.Statement {
	return []dwhetl.Statement{
		{
			Name:      TableSongplays,
			Table:     TableSongplays,
			Kind:      dwhetl.TableFact,
			Phase:     dwhetl.PhaseTransform,
			SQL:       songplaysInsert,
			DependsOn: []string{TableStagingEvents, TableStagingSongs},
		},
		{
			Name:      TableUsers,
			Table:     TableUsers,
			Kind:      dwhetl.TableDimension,
			Phase:     dwhetl.PhaseTransform,
			SQL:       usersInsert,
			DependsOn: []string{TableStagingEvents},
		},
		{
			Name:      TableSongs,
			Table:     TableSongs,
			Kind:      dwhetl.TableDimension,
			Phase:     dwhetl.PhaseTransform,
			SQL:       songsInsert,
			DependsOn: []string{TableStagingSongs},
		},
		{
			Name:      TableArtists,
			Table:     TableArtists,
			Kind:      dwhetl.TableDimension,
			Phase:     dwhetl.PhaseTransform,
			SQL:       artistsInsert,
			DependsOn: []string{TableStagingSongs},
		},
		{
			Name:      TableTime,
			Table:     TableTime,
			Kind:      dwhetl.TableDimension,
			Phase:     dwhetl.PhaseTransform,
			SQL:       timeInsert,
			DependsOn: []string{TableSongplays},
		},
	}
}
