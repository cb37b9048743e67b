package bot

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

func TestChatResolveChannel(t *testing.T) {
	fd, session := newFakeDiscord(t, "c1")
	chat := NewChat(session, 50, zerolog.Nop())
	ctx := context.Background()

	if err := chat.ResolveChannel(ctx, "c1"); err != nil {
		t.Fatalf("ResolveChannel(c1): %v", err)
	}
	if err := chat.ResolveChannel(ctx, "gone"); err == nil {
		t.Fatal("expected an error for an unknown channel")
	}

	calls := fd.calls()
	if len(calls) != 2 || calls[0].Method != "GET" || calls[0].Path != "/channels/c1" || calls[1].Path != "/channels/gone" {
		t.Fatalf("requests = %+v", calls)
	}
}

func TestChatResolveChannelUsesState(t *testing.T) {
	fd, session := newFakeDiscord(t)
	err := session.State.GuildAdd(&discordgo.Guild{
		ID:       "g1",
		Channels: []*discordgo.Channel{{ID: "cached", GuildID: "g1"}},
	})
	if err != nil {
		t.Fatalf("GuildAdd: %v", err)
	}

	if err := NewChat(session, 50, zerolog.Nop()).ResolveChannel(context.Background(), "cached"); err != nil {
		t.Fatalf("ResolveChannel: %v", err)
	}
	if calls := fd.calls(); len(calls) != 0 {
		t.Fatalf("cached channel should not hit the API, got %+v", calls)
	}
}

func TestChatSendAndDelete(t *testing.T) {
	fd, session := newFakeDiscord(t, "c1")
	chat := NewChat(session, 50, zerolog.Nop())
	ctx := context.Background()

	id, err := chat.SendEmbed(ctx, "c1", &discordgo.MessageEmbed{Title: "Server Information"})
	if err != nil {
		t.Fatalf("SendEmbed: %v", err)
	}
	if id != "m1" {
		t.Fatalf("message id = %q, want m1", id)
	}
	if err := chat.DeleteMessage(ctx, "c1", "m0"); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}

	calls := fd.calls()
	if len(calls) != 2 {
		t.Fatalf("requests = %+v", calls)
	}
	send, del := calls[0], calls[1]
	if send.Method != "POST" || send.Path != "/channels/c1/messages" {
		t.Fatalf("send = %s %s", send.Method, send.Path)
	}
	embeds, _ := send.Body["embeds"].([]any)
	if len(embeds) != 1 || embeds[0].(map[string]any)["title"] != "Server Information" {
		t.Fatalf("sent embeds = %v", send.Body["embeds"])
	}
	if del.Method != "DELETE" || del.Path != "/channels/c1/messages/m0" {
		t.Fatalf("delete = %s %s", del.Method, del.Path)
	}
}

func TestChatStopsOnCancelledContext(t *testing.T) {
	fd, session := newFakeDiscord(t, "c1")
	chat := NewChat(session, 1, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := chat.SendEmbed(ctx, "c1", &discordgo.MessageEmbed{}); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
	if calls := fd.calls(); len(calls) != 0 {
		t.Fatalf("no request expected, got %+v", calls)
	}
}
