package lastfm

import (
	"encoding/json"
	"time"
)

// NormalizeRecentTracks turns a user.getrecenttracks body into the user's
// latest Song. It returns false when the payload has no usable track: an
// unexpected shape, an empty list, a missing artist or title, or a past
// track without a parsable timestamp.
func NormalizeRecentTracks(payload json.RawMessage) (Song, bool) {
	var resp recentTracksResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Song{}, false
	}
	if resp.RecentTracks == nil {
		return Song{}, false
	}

	var tracks []recentTrack
	if err := json.Unmarshal(resp.RecentTracks.Track, &tracks); err != nil {
		return Song{}, false
	}
	if len(tracks) == 0 {
		return Song{}, false
	}
	t := tracks[0]

	artist, ok := t.Artist.value()
	if !ok || artist == "" {
		return Song{}, false
	}
	if t.Name == nil || *t.Name == "" {
		return Song{}, false
	}

	song := Song{
		Artist: artist,
		Name:   *t.Name,
	}
	song.Album, _ = t.Album.value()

	if t.Attr != nil && len(t.Attr.NowPlaying) > 0 {
		song.IsPlaying = true
		return song, true
	}

	if t.Date == nil {
		return Song{}, false
	}
	uts, ok := parseInt(t.Date.UTS)
	if !ok {
		return Song{}, false
	}
	song.PlayedAt = time.Unix(uts, 0).UTC()

	return song, true
}

// parsePlaycount extracts track.userplaycount from a track.getInfo body.
func parsePlaycount(payload json.RawMessage) (int, bool) {
	var resp trackInfoResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return 0, false
	}
	if resp.Track == nil {
		return 0, false
	}
	n, ok := parseInt(resp.Track.UserPlaycount)
	if !ok || n < 0 {
		return 0, false
	}
	return int(n), true
}
