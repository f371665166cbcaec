package nowplaying

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/llehouerou/aikta/internal/lastfm"
)

// fakeReply is what the fake Last.fm API answers for one user.
type fakeReply struct {
	status int
	body   string
	delay  time.Duration
	block  bool // wait until the client gives up
}

// fakeLastfm serves user.getrecenttracks and track.getInfo per username.
type fakeLastfm struct {
	mu        sync.Mutex
	recent    map[string]fakeReply
	info      map[string]fakeReply
	calls     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func newFakeLastfm() *fakeLastfm {
	return &fakeLastfm{
		recent: make(map[string]fakeReply),
		info:   make(map[string]fakeReply),
	}
}

func (f *fakeLastfm) setRecent(user string, r fakeReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent[user] = r
}

func (f *fakeLastfm) setInfo(user string, r fakeReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.info[user] = r
}

func (f *fakeLastfm) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxFlight.Load()
		if n <= m || f.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}

	q := r.URL.Query()
	f.mu.Lock()
	var (
		reply fakeReply
		ok    bool
	)
	switch q.Get("method") {
	case "user.getrecenttracks":
		reply, ok = f.recent[q.Get("user")]
	case "track.getInfo":
		reply, ok = f.info[q.Get("username")]
	}
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":6,"message":"not found"}`))
		return
	}
	if reply.block {
		<-r.Context().Done()
		return
	}
	if reply.delay > 0 {
		time.Sleep(reply.delay)
	}
	if reply.status == 0 {
		reply.status = http.StatusOK
	}
	w.WriteHeader(reply.status)
	_, _ = w.Write([]byte(reply.body))
}

func (f *fakeLastfm) client(t *testing.T) *lastfm.Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return lastfm.NewClient(srv.Client(), "test-key", lastfm.WithBaseURL(srv.URL+"/2.0/"))
}

func playingBody(artist, name, album string) string {
	return `{"recenttracks":{"track":[{"artist":{"#text":"` + artist + `"},"album":{"#text":"` + album +
		`"},"name":"` + name + `","@attr":{"nowplaying":"true"}}]}}`
}

func pastBody(artist, name string, uts int64) string {
	return `{"recenttracks":{"track":[{"artist":{"#text":"` + artist + `"},"album":{"#text":""},"name":"` +
		name + `","date":{"uts":"` + strconv.FormatInt(uts, 10) + `"}}]}}`
}

func playcountBody(n int64) string {
	return `{"track":{"userplaycount":"` + strconv.FormatInt(n, 10) + `"}}`
}
