package bot

import (
	"sort"
	"strings"
	"sync"
)

// Roster tracks who is in which channel. Channel and nick lookups are
// case-insensitive; members keep the spelling they were last seen with.
type Roster struct {
	mu       sync.RWMutex
	channels map[string]map[string]string // channel -> folded nick -> nick
}

// NewRoster returns an empty Roster.
func NewRoster() *Roster {
	return &Roster{channels: make(map[string]map[string]string)}
}

// rfc1459 casemapping: {}|^ are the lowercase of []\~.
var rfc1459 = strings.NewReplacer("[", "{", "]", "}", "\\", "|", "~", "^")

func fold(s string) string {
	return rfc1459.Replace(strings.ToLower(s))
}

// Reset starts tracking channel with no members.
func (r *Roster) Reset(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[fold(channel)] = make(map[string]string)
}

// Drop stops tracking channel.
func (r *Roster) Drop(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, fold(channel))
}

// Add records nicks as members of channel.
func (r *Roster) Add(channel string, nicks ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[fold(channel)]
	if !ok {
		members = make(map[string]string)
		r.channels[fold(channel)] = members
	}
	for _, n := range nicks {
		if n != "" {
			members[fold(n)] = n
		}
	}
}

// Remove records nick leaving channel.
func (r *Roster) Remove(channel, nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.channels[fold(channel)]; ok {
		delete(members, fold(nick))
	}
}

// Quit removes nick from every channel.
func (r *Roster) Quit(nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, members := range r.channels {
		delete(members, fold(nick))
	}
}

// Rename moves oldNick's memberships to newNick.
func (r *Roster) Rename(oldNick, newNick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, members := range r.channels {
		if _, ok := members[fold(oldNick)]; ok {
			delete(members, fold(oldNick))
			members[fold(newNick)] = newNick
		}
	}
}

// Members returns channel's members sorted case-insensitively, and false
// when the channel is not tracked.
func (r *Roster) Members(channel string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.channels[fold(channel)]
	if !ok {
		return nil, false
	}
	nicks := make([]string, 0, len(members))
	for _, n := range members {
		nicks = append(nicks, n)
	}
	sort.Slice(nicks, func(i, j int) bool {
		return fold(nicks[i]) < fold(nicks[j])
	})
	return nicks, true
}

// parseNames splits an RPL_NAMREPLY list, dropping membership prefixes
// and, with userhost-in-names, the user@host part.
func parseNames(list string) []string {
	fields := strings.Fields(list)
	nicks := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimLeft(f, "~&@%+")
		if i := strings.IndexByte(f, '!'); i >= 0 {
			f = f[:i]
		}
		if f != "" {
			nicks = append(nicks, f)
		}
	}
	return nicks
}
