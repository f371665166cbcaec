// Package nowplaying resolves what chat users are listening to on Last.fm,
// one at a time or for a whole channel.
package nowplaying

import (
	"context"
	"errors"
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/llehouerou/aikta/internal/lastfm"
)

// KeyPrefix namespaces identity mappings in the store.
const KeyPrefix = "lastfm:"

var log = logging.Logger("nowplaying")

// IdentityKey is the store key holding the Last.fm username of a chat identity.
func IdentityKey(identity string) string {
	return KeyPrefix + identity
}

// IdentityReader is the read side of the identity store.
type IdentityReader interface {
	Read(ctx context.Context, key string) (string, bool, error)
}

// TrackSource fetches Last.fm data for a user.
type TrackSource interface {
	// RecentTrack returns the user's latest track; false means no usable data.
	RecentTrack(ctx context.Context, username string) (lastfm.Song, bool, error)
	// PlayCount never fails; unknown counts are 0.
	PlayCount(ctx context.Context, artist, track, username string) int
}

// Query selects whose track to resolve. Username wins over Identity; Label
// is shown next to the username in the rendered line.
type Query struct {
	Username string
	Identity string
	Label    string
}

// Result is the outcome of one resolution. Song is nil when nothing could
// be resolved, in which case Formatted is empty.
type Result struct {
	Username  string
	Song      *lastfm.Song
	Formatted string
}

// Found reports whether a song was resolved.
func (r Result) Found() bool {
	return r.Song != nil
}

// Resolver looks up a listener's Last.fm account and renders their latest track.
type Resolver struct {
	identities IdentityReader
	tracks     TrackSource
	now        func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock replaces time.Now, used for elapsed-time rendering.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver.
func NewResolver(identities IdentityReader, tracks TrackSource, opts ...Option) *Resolver {
	r := &Resolver{
		identities: identities,
		tracks:     tracks,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the latest track for the queried listener. A listener
// without a stored Last.fm account, or without usable Last.fm data, yields
// an empty Result and no error. Errors come from the identity store or the
// recent-tracks request.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Result, error) {
	username := q.Username
	if username == "" && q.Identity != "" {
		name, ok, err := r.identities.Read(ctx, IdentityKey(q.Identity))
		if err != nil {
			return Result{}, fmt.Errorf("read identity %s: %w", q.Identity, err)
		}
		if !ok {
			return Result{}, nil
		}
		username = name
	}
	if username == "" {
		return Result{}, nil
	}

	song, ok, err := r.tracks.RecentTrack(ctx, username)
	if errors.Is(err, lastfm.ErrUnknownUser) {
		log.Debugw("stored account unknown to last.fm", "user", username, "identity", q.Identity)
		return Result{Username: username}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("fetch now playing for %s: %w", username, err)
	}
	if !ok {
		return Result{Username: username}, nil
	}

	song.Playcount = r.tracks.PlayCount(ctx, song.Artist, song.Name, username)

	return Result{
		Username:  username,
		Song:      &song,
		Formatted: Format(username, q.Label, song, r.now()),
	}, nil
}
