package database

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gamestatus/gamestatus-bot/internal/models"
	"github.com/rs/zerolog"
)

func TestGormStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenGorm("sqlite", dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenGorm error: %v", err)
	}
	defer s.Close()

	if got := s.Load(ctx).States(); len(got) != 0 {
		t.Fatalf("fresh database should be empty, got %+v", got)
	}

	first := []models.MonitorState{
		{Key: models.MonitorKey{GuildID: "g1", ChannelID: "c1"}, Spec: models.MonitorSpec{ServerType: "valheim", Host: "h", Port: 2457}},
	}
	if err := s.Save(ctx, models.DocumentFromStates(first)); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	second := append(first, models.MonitorState{
		Key: models.MonitorKey{GuildID: "g1", ChannelID: "c2"}, Spec: models.MonitorSpec{ServerType: "rust", Host: "r", Port: 28015}, LastMessageID: "m2",
	})
	if err := s.Save(ctx, models.DocumentFromStates(second)); err != nil {
		t.Fatalf("second Save error: %v", err)
	}

	var count int64
	if err := s.db.Model(&models.StateDocument{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected a single document row, got %d", count)
	}

	if got := s.Load(ctx).States(); !reflect.DeepEqual(got, second) {
		t.Fatalf("Load = %+v, want %+v", got, second)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mongo", "x", zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	s, err := Open("file", filepath.Join(t.TempDir(), "d.json"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(file) error: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("Open(file) returned %T", s)
	}
}
