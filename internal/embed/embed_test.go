package embed

import (
	"strings"
	"testing"
	"time"
)

func fieldValue(t *testing.T, fields map[string]string, name string) string {
	t.Helper()
	v, ok := fields[name]
	if !ok {
		t.Fatalf("missing field %q", name)
	}
	return v
}

func TestCreateServerEmbed(t *testing.T) {
	updated := time.Unix(1700000000, 0)
	e := CreateServerEmbed(ServerReport{
		Name: "Valheim Server", Game: "valheim", Address: "10.0.0.5:2456",
		Ping: 42 * time.Millisecond, Players: 3, MaxPlayers: 10, UpdatedAt: updated,
	})

	fields := map[string]string{}
	for _, f := range e.Fields {
		fields[f.Name] = f.Value
	}
	if got := fieldValue(t, fields, "Players:"); got != "3/10" {
		t.Fatalf("Players = %q, want 3/10", got)
	}
	if got := fieldValue(t, fields, "Status:"); got != OnlineStatus {
		t.Fatalf("Status = %q", got)
	}
	if got := fieldValue(t, fields, "Game:"); got != "VALHEIM" {
		t.Fatalf("Game = %q", got)
	}
	if got := fieldValue(t, fields, "Ping:"); got != "42 ms" {
		t.Fatalf("Ping = %q", got)
	}
	if got := fieldValue(t, fields, "Password Protected:"); got != "false" {
		t.Fatalf("Password Protected = %q", got)
	}
	if got := fieldValue(t, fields, "Last Updated:"); got != "<t:1700000000:R>" {
		t.Fatalf("Last Updated = %q", got)
	}
	if e.Color != ColorOnline {
		t.Fatalf("Color = %x", e.Color)
	}
}

func TestCreateInvalidTargetEmbed(t *testing.T) {
	e := CreateInvalidTargetEmbed("Invalid game: not-a-game")
	if e.Title != "Invalid game: not-a-game" {
		t.Fatalf("Title = %q", e.Title)
	}
	if !strings.Contains(e.Description, GamesListURL) {
		t.Fatalf("Description should link the games list, got %q", e.Description)
	}
	if e.Color != ColorError {
		t.Fatalf("Color = %x", e.Color)
	}
}

func TestCreateOfflineEmbed(t *testing.T) {
	e := CreateOfflineEmbed(time.Unix(0, 0))
	if e.Title != OfflineTitle || len(e.Fields) != 0 {
		t.Fatalf("unexpected offline embed %+v", e)
	}
}
