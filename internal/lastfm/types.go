package lastfm

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Song is a normalized recent track for one Last.fm user.
type Song struct {
	Artist    string
	Name      string
	Album     string    // empty when Last.fm reports no album
	IsPlaying bool      // currently scrobbling
	PlayedAt  time.Time // zero when IsPlaying
	Playcount int       // user's plays of this track, 0 when unknown
}

// HasAlbum reports whether the song carries an album title.
func (s Song) HasAlbum() bool {
	return s.Album != ""
}

// recentTracksResponse mirrors the parts of user.getrecenttracks we read.
// Every level is optional so a shape mismatch can be told apart from a
// decode failure of the body itself.
type recentTracksResponse struct {
	RecentTracks *struct {
		Track json.RawMessage `json:"track"`
	} `json:"recenttracks"`
}

type recentTrack struct {
	Artist *textField `json:"artist"`
	Album  *textField `json:"album"`
	Name   *string    `json:"name"`
	Attr   *struct {
		NowPlaying json.RawMessage `json:"nowplaying"`
	} `json:"@attr"`
	Date *struct {
		UTS json.RawMessage `json:"uts"`
	} `json:"date"`
}

type textField struct {
	Text *string `json:"#text"`
}

func (f *textField) value() (string, bool) {
	if f == nil || f.Text == nil {
		return "", false
	}
	return *f.Text, true
}

// trackInfoResponse mirrors the parts of track.getInfo we read.
type trackInfoResponse struct {
	Track *struct {
		UserPlaycount json.RawMessage `json:"userplaycount"`
	} `json:"track"`
}

// apiErrorResponse is the body Last.fm sends alongside failures.
type apiErrorResponse struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// parseInt reads an integer that Last.fm may encode as a JSON string or number.
func parseInt(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	return 0, false
}
