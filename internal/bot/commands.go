package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/aikta/internal/errmsg"
	"github.com/llehouerou/aikta/internal/lastfm"
	"github.com/llehouerou/aikta/internal/nowplaying"
)

// Placeholder is sent for .wp when nobody in the channel has a track.
const Placeholder = "..."

// Sender delivers a chat line.
type Sender interface {
	Privmsg(target, message string) error
}

// IdentityStore remembers Last.fm usernames per nick.
type IdentityStore interface {
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string) error
}

// Resolver resolves one listener.
type Resolver interface {
	Resolve(ctx context.Context, q nowplaying.Query) (nowplaying.Result, error)
}

// Aggregator resolves a whole channel.
type Aggregator interface {
	Aggregate(ctx context.Context, listeners []nowplaying.Listener) []string
}

// AccountVerifier confirms a Last.fm account exists and returns its
// canonical name.
type AccountVerifier interface {
	Verify(ctx context.Context, username string) (string, error)
}

// Deps are the collaborators commands need. Verifier may be nil.
type Deps struct {
	Identities IdentityStore
	Resolver   Resolver
	Aggregator Aggregator
	Verifier   AccountVerifier
	LineDelay  time.Duration
	Version    string

	// VerifyTimeout bounds one account check; zero leaves it to ctx.
	VerifyTimeout time.Duration
}

// Handler answers chat commands.
type Handler struct {
	Deps
	roster *Roster
	self   func() string
}

// NewHandler creates a Handler reading channel membership from roster.
// self returns the bot's current nick.
func NewHandler(deps Deps, roster *Roster, self func() string) *Handler {
	return &Handler{Deps: deps, roster: roster, self: self}
}

// IsCommand reports whether text is addressed to the bot.
func IsCommand(text string) bool {
	switch command(text) {
	case ".np", ".wp", ".v":
		return true
	}
	return false
}

func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func isChannel(target string) bool {
	return target != "" && strings.ContainsRune("#&+!", rune(target[0]))
}

// Handle runs the command in text, sent by nick to target.
func (h *Handler) Handle(ctx context.Context, s Sender, target, nick, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}

	replyTo := target
	if !isChannel(target) {
		replyTo = nick
	}

	reqID := uuid.NewString()
	log.Infow("command", "id", reqID, "cmd", fields[0], "nick", nick, "target", target)
	start := time.Now()
	defer func() {
		log.Debugw("command done", "id", reqID, "took", time.Since(start))
	}()

	switch fields[0] {
	case ".np":
		h.nowPlaying(ctx, s, replyTo, nick, fields[1:], reqID)
	case ".wp":
		if isChannel(target) {
			h.whoPlaying(ctx, s, target, reqID)
		}
	case ".v":
		h.send(s, replyTo, h.Version)
	}
}

func (h *Handler) nowPlaying(ctx context.Context, s Sender, replyTo, nick string, args []string, reqID string) {
	key := nowplaying.IdentityKey(nick)

	var username string
	if len(args) > 0 {
		username = args[0]
		if h.Verifier != nil {
			canonical, err := h.verify(ctx, username)
			switch {
			case errors.Is(err, lastfm.ErrUnknownUser):
				h.send(s, replyTo, nick+": unknown last.fm user "+username)
				return
			case err != nil:
				// Last.fm being unreachable is no reason to refuse the name.
				log.Warnw("account check failed", "id", reqID, "user", username, "err", err)
			default:
				username = canonical
			}
		}
		if err := h.Identities.Write(ctx, key, username); err != nil {
			log.Errorw("save account failed", "id", reqID, "nick", nick, "err", err)
			h.send(s, replyTo, errmsg.Reply(nick, errmsg.OpSaveAccount, err))
			return
		}
	} else {
		stored, ok, err := h.Identities.Read(ctx, key)
		if err != nil {
			log.Errorw("account lookup failed", "id", reqID, "nick", nick, "err", err)
			h.send(s, replyTo, errmsg.Reply(nick, errmsg.OpLookupAccount, err))
			return
		}
		if !ok {
			h.send(s, replyTo, nick+": set your lastfm: .np username")
			return
		}
		username = stored
	}

	res, err := h.Resolver.Resolve(ctx, nowplaying.Query{Username: username, Label: nick})
	if err != nil {
		log.Warnw("now playing failed", "id", reqID, "user", username, "err", err)
		h.send(s, replyTo, errmsg.Reply(nick, errmsg.OpNowPlaying, err))
		return
	}
	if !res.Found() {
		h.send(s, replyTo, nick+": No recent track found.")
		return
	}
	h.send(s, replyTo, res.Formatted)
}

func (h *Handler) verify(ctx context.Context, username string) (string, error) {
	if h.VerifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.VerifyTimeout)
		defer cancel()
	}
	return h.Verifier.Verify(ctx, username)
}

func (h *Handler) whoPlaying(ctx context.Context, s Sender, channel, reqID string) {
	members, ok := h.roster.Members(channel)
	if !ok {
		log.Debugw("channel not tracked", "id", reqID, "channel", channel)
		return
	}

	self := ""
	if h.self != nil {
		self = h.self()
	}
	listeners := make([]nowplaying.Listener, 0, len(members))
	for _, n := range members {
		if fold(n) == fold(self) {
			continue
		}
		listeners = append(listeners, nowplaying.Listener{Identity: n, Label: n})
	}

	lines := h.Aggregator.Aggregate(ctx, listeners)
	log.Infow("channel resolved", "id", reqID, "channel", channel, "members", len(listeners), "playing", len(lines))
	if len(lines) == 0 {
		lines = []string{Placeholder}
	}

	for i, line := range lines {
		if i > 0 && h.LineDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(h.LineDelay):
			}
		}
		h.send(s, channel, line)
	}
}

func (h *Handler) send(s Sender, target, line string) {
	if line == "" {
		return
	}
	if err := s.Privmsg(target, line); err != nil {
		log.Warnw("send failed", "target", target, "err", err)
	}
}
