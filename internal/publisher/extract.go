package publisher

import (
	"strconv"
	"strings"

	"github.com/gamestatus/gamestatus-bot/internal/gamequery"
)

// Extractor reads the lock status and player count out of a query result.
// Most games report them in the common fields; some only expose them in
// vendor-specific data.
type Extractor interface {
	LockStatus(st *gamequery.ServerState) bool
	PlayerCount(st *gamequery.ServerState) int
}

type defaultExtractor struct{}

func (defaultExtractor) LockStatus(st *gamequery.ServerState) bool { return st.Password }
func (defaultExtractor) PlayerCount(st *gamequery.ServerState) int { return st.NumPlayers }

// tagExtractor reads "key:value" entries at fixed positions of the server
// keyword tags, falling back to the common fields when a tag is missing or
// malformed.
type tagExtractor struct {
	lockIndex   int
	playerIndex int
}

func (e tagExtractor) LockStatus(st *gamequery.ServerState) bool {
	v, ok := tagValue(st.Raw.Tags, e.lockIndex)
	if !ok {
		return st.Password
	}
	locked, err := strconv.ParseBool(v)
	if err != nil {
		return st.Password
	}
	return locked
}

func (e tagExtractor) PlayerCount(st *gamequery.ServerState) int {
	v, ok := tagValue(st.Raw.Tags, e.playerIndex)
	if !ok {
		return st.NumPlayers
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return st.NumPlayers
	}
	return n
}

func tagValue(tags []string, i int) (string, bool) {
	if i < 0 || i >= len(tags) {
		return "", false
	}
	_, v, ok := strings.Cut(tags[i], ":")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func defaultExtractors() map[string]Extractor {
	return map[string]Extractor{
		"abioticfactor": tagExtractor{lockIndex: 4, playerIndex: 5},
	}
}
