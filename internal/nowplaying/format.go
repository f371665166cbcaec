package nowplaying

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/aikta/internal/lastfm"
)

// Format renders a song as a single chat line, e.g.
//
//	bobtunes(bob) 2m ago: Boards of Canada - Roygbiv [7 plays]
//	alicelfm now playing: Autechre - Foil from Amber
func Format(username, label string, song lastfm.Song, now time.Time) string {
	var b strings.Builder

	b.WriteString(username)
	if label != "" {
		b.WriteString("(" + label + ")")
	}
	b.WriteByte(' ')

	if song.IsPlaying {
		b.WriteString("now playing")
	} else {
		b.WriteString(Elapsed(song.PlayedAt, now))
	}

	b.WriteString(": " + song.Artist + " - " + song.Name)

	if song.HasAlbum() {
		b.WriteString(" from " + song.Album)
	}
	if song.Playcount > 0 {
		b.WriteString(" [" + humanize.Comma(int64(song.Playcount)) + " plays]")
	}

	return b.String()
}
