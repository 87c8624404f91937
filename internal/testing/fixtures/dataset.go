package fixtures

import (
	"encoding/json"
	"fmt"
)

// Event is one line of the event log, keyed like the source JSON.
// Pointer fields are omitted from the JSON when nil.
type Event struct {
	Artist        string   `json:"artist,omitempty"`
	Auth          string   `json:"auth,omitempty"`
	FirstName     string   `json:"firstName,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	ItemInSession int      `json:"itemInSession"`
	LastName      string   `json:"lastName,omitempty"`
	Length        *float64 `json:"length,omitempty"`
	Level         string   `json:"level,omitempty"`
	Location      string   `json:"location,omitempty"`
	Method        string   `json:"method,omitempty"`
	Page          string   `json:"page,omitempty"`
	Registration  *float64 `json:"registration,omitempty"`
	SessionID     int      `json:"sessionId"`
	Song          string   `json:"song,omitempty"`
	Status        int      `json:"status,omitempty"`
	TS            int64    `json:"ts"`
	UserAgent     string   `json:"userAgent,omitempty"`
	UserID        *int     `json:"userId,omitempty"`
}

// Song is one song metadata document.
type Song struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Duration        float64  `json:"duration"`
	Year            int      `json:"year"`
}

// DatasetBuilder provides a fluent API for building the two newline-delimited
// JSON sources the staging tables are bulk-loaded from.
//
// Example usage:
//
//	ds := NewDatasetBuilder().
//	    AddEvent(Event{UserID: Int(7), Page: "NextSong", Level: "free", TS: 1000}).
//	    AddSong(Song{SongID: "S1", ArtistID: "A1", Title: "X", ArtistName: "Y", Duration: 200})
//	events, songs := ds.EventLines(), ds.SongLines()
type DatasetBuilder struct {
	events []Event
	songs  []Song
}

// NewDatasetBuilder creates an empty builder.
func NewDatasetBuilder() *DatasetBuilder {
	return &DatasetBuilder{}
}

// AddEvent appends an event log line.
func (b *DatasetBuilder) AddEvent(e Event) *DatasetBuilder {
	b.events = append(b.events, e)
	return b
}

// AddSong appends a song document.
func (b *DatasetBuilder) AddSong(s Song) *DatasetBuilder {
	b.songs = append(b.songs, s)
	return b
}

// EventLines returns one JSON document per event.
func (b *DatasetBuilder) EventLines() []string {
	return encodeLines(b.events)
}

// SongLines returns one JSON document per song.
func (b *DatasetBuilder) SongLines() []string {
	return encodeLines(b.songs)
}

func encodeLines[T any](items []T) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			panic(fmt.Sprintf("fixtures: encode %T: %v", item, err))
		}
		lines = append(lines, string(data))
	}
	return lines
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// ============================================================================
// Pre-built Fixtures
// ============================================================================

// UnmatchedListen is one NextSong event by user 7 and one song whose title
// and artist do not match it: the fact transform yields nothing while the
// user dimension still gets user 7.
func UnmatchedListen() *DatasetBuilder {
	return NewDatasetBuilder().
		AddEvent(Event{UserID: Int(7), Page: "NextSong", Level: "free", TS: 1000}).
		AddSong(Song{SongID: "S1", ArtistID: "A1", Title: "X", ArtistName: "Y", Duration: 200})
}

// SessionWithMatches is a short session of user 26: two listens that match
// a song in the catalog, one that does not, and a Home page view.
func SessionWithMatches() *DatasetBuilder {
	return NewDatasetBuilder().
		AddEvent(Event{
			Artist: "Sydney Youngblood", Auth: "Logged In", FirstName: "Ryan", Gender: "M",
			ItemInSession: 0, LastName: "Smith", Length: Float(238.07955), Level: "free",
			Location: "San Jose-Sunnyvale-Santa Clara, CA", Method: "PUT", Page: "NextSong",
			Registration: Float(1540809153796), SessionID: 583, Song: "Ain't No Sunshine", Status: 200,
			TS: 1542241826796, UserAgent: "Mozilla/5.0 (X11; Linux x86_64)", UserID: Int(26),
		}).
		AddEvent(Event{
			Artist: "Gang Starr", Auth: "Logged In", FirstName: "Ryan", Gender: "M",
			ItemInSession: 1, LastName: "Smith", Length: Float(151.92771), Level: "free",
			Location: "San Jose-Sunnyvale-Santa Clara, CA", Method: "PUT", Page: "NextSong",
			Registration: Float(1540809153796), SessionID: 583, Song: "My Advice 2 You (Explicit)", Status: 200,
			TS: 1542242064796, UserAgent: "Mozilla/5.0 (X11; Linux x86_64)", UserID: Int(26),
		}).
		AddEvent(Event{
			Artist: "3OH!3", Auth: "Logged In", FirstName: "Ryan", Gender: "M",
			ItemInSession: 2, LastName: "Smith", Length: Float(192.522), Level: "free",
			Location: "San Jose-Sunnyvale-Santa Clara, CA", Method: "PUT", Page: "NextSong",
			Registration: Float(1540809153796), SessionID: 583, Song: "Starstrukk", Status: 200,
			TS: 1542242481796, UserAgent: "Mozilla/5.0 (X11; Linux x86_64)", UserID: Int(26),
		}).
		AddEvent(Event{
			Auth: "Logged In", FirstName: "Ryan", Gender: "M", ItemInSession: 3, LastName: "Smith",
			Level: "free", Location: "San Jose-Sunnyvale-Santa Clara, CA", Method: "GET", Page: "Home",
			Registration: Float(1540809153796), SessionID: 583, Status: 200,
			TS: 1542242500000, UserAgent: "Mozilla/5.0 (X11; Linux x86_64)", UserID: Int(26),
		}).
		AddSong(Song{
			NumSongs: 1, ArtistID: "ARGSJW91187B9B1D6B", ArtistName: "Sydney Youngblood",
			ArtistLatitude: Float(35.21962), ArtistLongitude: Float(-80.01955), ArtistLocation: "North Carolina",
			SongID: "SOUPIRU12A6D4FA1E1", Title: "Ain't No Sunshine", Duration: 238.07955, Year: 1990,
		}).
		AddSong(Song{
			NumSongs: 1, ArtistID: "AR5S5X41187B9B6F4F", ArtistName: "Gang Starr",
			SongID: "SOKJEUK12A8C13F5F2", Title: "My Advice 2 You (Explicit)", Duration: 151.92771, Year: 1992,
		}).
		AddSong(Song{
			NumSongs: 1, ArtistID: "AR10USD1187B99F3F1", ArtistName: "Tweeterfriendly Music",
			ArtistLocation: "Burlington, Ontario, Canada",
			SongID: "SOHKNRJ12A6701D1F8", Title: "Drop of Rain", Duration: 189.57016, Year: 0,
		})
}
