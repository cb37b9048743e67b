package publisher

import (
	"testing"

	"github.com/gamestatus/gamestatus-bot/internal/gamequery"
	"github.com/rs/zerolog"
)

func TestTagExtractorFallsBack(t *testing.T) {
	ex := tagExtractor{lockIndex: 4, playerIndex: 5}
	tests := []struct {
		name       string
		tags       []string
		wantLocked bool
		wantCount  int
	}{
		{name: "tags present", tags: []string{"", "", "", "", "pw:true", "n:7"}, wantLocked: true, wantCount: 7},
		{name: "too few tags", tags: []string{"pw:true"}, wantLocked: false, wantCount: 2},
		{name: "malformed values", tags: []string{"", "", "", "", "pw:maybe", "n:many"}, wantLocked: false, wantCount: 2},
		{name: "no separator", tags: []string{"", "", "", "", "true", "7"}, wantLocked: false, wantCount: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &gamequery.ServerState{NumPlayers: 2, Raw: gamequery.Raw{Tags: tt.tags}}
			if got := ex.LockStatus(st); got != tt.wantLocked {
				t.Errorf("LockStatus = %v, want %v", got, tt.wantLocked)
			}
			if got := ex.PlayerCount(st); got != tt.wantCount {
				t.Errorf("PlayerCount = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestExtractorRegistration(t *testing.T) {
	p := New(nil, nil, nil, zerolog.Nop(), WithExtractor("Valheim", tagExtractor{lockIndex: 0, playerIndex: 1}))
	st := &gamequery.ServerState{Game: gamequery.Game{ID: "valheim"}}
	if _, ok := p.extractorFor("valheim", st).(tagExtractor); !ok {
		t.Fatal("registered extractor not used")
	}
	if _, ok := p.extractorFor("rust", &gamequery.ServerState{Game: gamequery.Game{ID: "rust"}}).(defaultExtractor); !ok {
		t.Fatal("default extractor expected for rust")
	}
}
