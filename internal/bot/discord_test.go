package bot

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeDiscord answers the REST calls the bot makes and records them. Paths are
// recorded without the /api/vN prefix.
type fakeDiscord struct {
	mu       sync.Mutex
	requests []recordedRequest
	channels map[string]bool
}

type rewriteTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	req.Host = rt.target.Host
	return rt.next.RoundTrip(req)
}

func newFakeDiscord(t *testing.T, channels ...string) (*fakeDiscord, *discordgo.Session) {
	t.Helper()
	fd := &fakeDiscord{channels: map[string]bool{}}
	for _, c := range channels {
		fd.channels[c] = true
	}

	srv := httptest.NewServer(http.HandlerFunc(fd.serve))
	t.Cleanup(srv.Close)
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	s, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("discordgo.New: %v", err)
	}
	s.Client = &http.Client{Transport: rewriteTransport{target: target, next: srv.Client().Transport}}
	return fd, s
}

func apiPath(p string) string {
	if i := strings.Index(p, "/api/v"); i >= 0 {
		rest := p[i+len("/api/v"):]
		if j := strings.Index(rest, "/"); j >= 0 {
			return rest[j:]
		}
	}
	return p
}

func (fd *fakeDiscord) serve(w http.ResponseWriter, r *http.Request) {
	path := apiPath(r.URL.Path)
	rec := recordedRequest{Method: r.Method, Path: path}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}

	fd.mu.Lock()
	fd.requests = append(fd.requests, rec)
	known := fd.channels
	fd.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/channels/"):
		id := strings.TrimPrefix(path, "/channels/")
		if !known[id] {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message": "Unknown Channel", "code": 10003}`)
			return
		}
		io.WriteString(w, `{"id": "`+id+`"}`)
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/messages"):
		io.WriteString(w, `{"id": "m1"}`)
	case r.Method == http.MethodDelete, strings.HasSuffix(path, "/callback"):
		w.WriteHeader(http.StatusNoContent)
	default:
		io.WriteString(w, `{"id": "m1"}`)
	}
}

func (fd *fakeDiscord) calls() []recordedRequest {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return append([]recordedRequest(nil), fd.requests...)
}

// responseData returns the "data" object of an interaction callback body.
func responseData(t *testing.T, req recordedRequest) map[string]any {
	t.Helper()
	data, ok := req.Body["data"].(map[string]any)
	if !ok {
		t.Fatalf("%s %s has no data: %v", req.Method, req.Path, req.Body)
	}
	return data
}

func isEphemeral(data map[string]any) bool {
	flags, _ := data["flags"].(float64)
	return int(flags)&int(discordgo.MessageFlagsEphemeral) != 0
}
