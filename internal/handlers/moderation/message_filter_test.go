package handlers

import (
	"context"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/pakhadai/wartovyi/internal/bot"
	"github.com/pakhadai/wartovyi/internal/config"
	"github.com/pakhadai/wartovyi/internal/db/sqlite"
	"github.com/pakhadai/wartovyi/internal/event"
)

const (
	filterChatID   = int64(-2000)
	filterAdminID  = int64(42)
	filterOwnerID  = int64(100)
	filterMemberID = int64(777)
)

func newTestFilter(t *testing.T) *MessageFilter {
	t.Helper()
	ctx := context.Background()

	client, err := sqlite.NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.RegisterChat(ctx, filterChatID, "test chat", "en"); err != nil {
		t.Fatalf("register chat: %v", err)
	}
	if err := client.SetChatOwner(ctx, filterChatID, filterOwnerID); err != nil {
		t.Fatalf("set owner: %v", err)
	}

	cfg := config.Config{AdminID: filterAdminID, DefaultLanguage: "en"}
	s := bot.NewService(nil, client, cfg)
	return NewMessageFilter(s, cfg, event.NewDispatcher(8, 1, time.Second))
}

func groupMessage(userID int64, text string) (*api.Update, *api.Chat, *api.User) {
	chat := &api.Chat{ID: filterChatID, Type: "supergroup"}
	user := &api.User{ID: userID}
	u := &api.Update{Message: &api.Message{
		MessageID: 1,
		Chat:      *chat,
		From:      user,
		Text:      text,
	}}
	return u, chat, user
}

// Antiflood tracks everyone, the spam-filter exemption starts only
// after the flood branch.
func TestHandleTracksFloodForExemptUsers(t *testing.T) {
	t.Parallel()

	m := newTestFilter(t)
	ctx := context.Background()

	for _, userID := range []int64{filterAdminID, filterOwnerID} {
		u, chat, user := groupMessage(userID, "hello")
		proceed, err := m.Handle(ctx, u, chat, user)
		if err != nil || !proceed {
			t.Fatalf("Handle(user %d) = %v, %v", userID, proceed, err)
		}

		bucket, ok := m.flood.buckets[floodKey{chatID: filterChatID, userID: userID}]
		if !ok || len(bucket.stamps) != 1 {
			t.Fatalf("user %d not tracked by antiflood (bucket %v)", userID, bucket)
		}
	}
}

func TestIsExemptCoversAdminAndOwnerOnly(t *testing.T) {
	t.Parallel()

	m := newTestFilter(t)
	ctx := context.Background()

	if !m.isExempt(ctx, filterChatID, filterAdminID) {
		t.Fatal("global admin must be exempt")
	}
	if !m.isExempt(ctx, filterChatID, filterOwnerID) {
		t.Fatal("registered owner must be exempt")
	}
	// plain members are judged without any platform lookup
	if m.isExempt(ctx, filterChatID, filterMemberID) {
		t.Fatal("plain member must not be exempt")
	}
}
