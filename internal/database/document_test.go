package database

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gamestatus/gamestatus-bot/internal/models"
)

func TestDecodeDocumentCurrentVersion(t *testing.T) {
	data := []byte(`{
  "version": 1,
  "monitors": {
    "g1": {"c1": {"spec": {"type": "valheim", "host": "10.0.0.5", "port": 2457}, "lastMessageId": "m1"}},
    "g2": {}
  }
}`)
	doc, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("DecodeDocument error: %v", err)
	}
	want := []models.MonitorState{{
		Key:           models.MonitorKey{GuildID: "g1", ChannelID: "c1"},
		Spec:          models.MonitorSpec{ServerType: "valheim", Host: "10.0.0.5", Port: 2457},
		LastMessageID: "m1",
	}}
	if got := doc.States(); !reflect.DeepEqual(got, want) {
		t.Fatalf("States() = %+v, want %+v", got, want)
	}
	if _, ok := doc.Monitors["g2"]; ok {
		t.Fatalf("empty guild should be pruned")
	}
}

func TestDecodeDocumentMigratesLegacyShapes(t *testing.T) {
	data := []byte(`{
  "intervals": {
    "g1": {
      "c1": {"type": "valheim", "host": "10.0.0.5", "port": 2457},
      "c2": ["rust", "rust.example.com", "28015"]
    }
  },
  "lastMessages": {
    "g1": {"c1": "m1", "stale": "m9"}
  }
}`)
	doc, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("DecodeDocument error: %v", err)
	}
	if doc.Version != models.CurrentDocumentVersion {
		t.Fatalf("Version = %d", doc.Version)
	}
	want := []models.MonitorState{
		{
			Key:           models.MonitorKey{GuildID: "g1", ChannelID: "c1"},
			Spec:          models.MonitorSpec{ServerType: "valheim", Host: "10.0.0.5", Port: 2457},
			LastMessageID: "m1",
		},
		{
			Key:  models.MonitorKey{GuildID: "g1", ChannelID: "c2"},
			Spec: models.MonitorSpec{ServerType: "rust", Host: "rust.example.com", Port: 28015},
		},
	}
	if got := doc.States(); !reflect.DeepEqual(got, want) {
		t.Fatalf("States() = %+v, want %+v", got, want)
	}
}

func TestDecodeDocumentRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "future version", data: `{"version": 2, "monitors": {}}`, want: ErrUnsupportedVersion},
		{name: "unknown shape", data: `{"something": true}`, want: ErrUnknownShape},
		{name: "bad positional spec", data: `{"intervals": {"g": {"c": ["valheim", "h"]}}}`, want: ErrUnknownShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDocument([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("DecodeDocument error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := DecodeDocument([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	states := []models.MonitorState{
		{Key: models.MonitorKey{GuildID: "g1", ChannelID: "c1"}, Spec: models.MonitorSpec{ServerType: "valheim", Host: "h", Port: 1}, LastMessageID: "m"},
		{Key: models.MonitorKey{GuildID: "g2", ChannelID: "c9"}, Spec: models.MonitorSpec{ServerType: "rust", Host: "r", Port: 2}},
	}
	data, err := EncodeDocument(models.DocumentFromStates(states))
	if err != nil {
		t.Fatalf("EncodeDocument error: %v", err)
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		t.Fatalf("DecodeDocument error: %v", err)
	}
	if got := doc.States(); !reflect.DeepEqual(got, states) {
		t.Fatalf("round trip = %+v, want %+v", got, states)
	}
}
