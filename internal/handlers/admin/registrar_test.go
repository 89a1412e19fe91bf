package handlers

import (
	"context"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/pakhadai/wartovyi/internal/config"
	"github.com/pakhadai/wartovyi/internal/db"
	"github.com/pakhadai/wartovyi/internal/db/sqlite"
)

type stubRegistrarService struct {
	client db.Client
}

func (s *stubRegistrarService) GetBot() *api.BotAPI { return nil }
func (s *stubRegistrarService) GetDB() db.Client    { return s.client }
func (s *stubRegistrarService) GetLanguage(ctx context.Context, chatID int64, user *api.User) string {
	return "en"
}

type recordingResetter struct {
	forgotten []int64
}

func (r *recordingResetter) ForgetChat(chatID int64) {
	r.forgotten = append(r.forgotten, chatID)
}

// An eviction purges stored chat state and the handlers' in-memory
// state with it, pending timers must not fire for a purged chat.
func TestRegistrarPurgeResetsHandlerState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := sqlite.NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	purgedChatID := int64(-3000)
	if err := client.RegisterChat(ctx, purgedChatID, "doomed chat", "en"); err != nil {
		t.Fatalf("register chat: %v", err)
	}
	if _, err := client.AddWarning(ctx, purgedChatID, 100); err != nil {
		t.Fatalf("add warning: %v", err)
	}

	resetter := &recordingResetter{}
	r := NewRegistrar(&stubRegistrarService{client: client}, config.Config{DefaultLanguage: "en"}, resetter)

	chat := &api.Chat{ID: purgedChatID, Type: "supergroup"}
	u := &api.Update{MyChatMember: &api.ChatMemberUpdated{
		Chat:          *chat,
		From:          api.User{ID: 1},
		NewChatMember: api.ChatMember{Status: "kicked"},
	}}

	proceed, err := r.Handle(ctx, u, chat, &api.User{ID: 1})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if proceed {
		t.Fatal("my_chat_member updates must not propagate")
	}

	if len(resetter.forgotten) != 1 || resetter.forgotten[0] != purgedChatID {
		t.Fatalf("forgotten chats = %v, want [%d]", resetter.forgotten, purgedChatID)
	}
	if settings, err := client.GetSettings(ctx, purgedChatID); err != nil || settings != nil {
		t.Fatalf("settings after purge = %v, %v, want nil row", settings, err)
	}
	if warnings, err := client.GetWarnings(ctx, purgedChatID, 100); err != nil || warnings != 0 {
		t.Fatalf("warnings after purge = %d, %v, want 0", warnings, err)
	}
}
