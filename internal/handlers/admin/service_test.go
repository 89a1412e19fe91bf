package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/pakhadai/wartovyi/internal/bot"
	"github.com/pakhadai/wartovyi/internal/config"
	"github.com/pakhadai/wartovyi/internal/db"
	"github.com/pakhadai/wartovyi/internal/db/sqlite"
)

const (
	globalAdminID = int64(42)
	ownerID       = int64(100)
	strangerID    = int64(200)
	chatID        = int64(-1000)
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()

	client, err := sqlite.NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.RegisterChat(ctx, chatID, "test chat", "en"); err != nil {
		t.Fatalf("register chat: %v", err)
	}
	if err := client.SetChatOwner(ctx, chatID, ownerID); err != nil {
		t.Fatalf("set owner: %v", err)
	}

	cfg := config.Config{AdminID: globalAdminID, DefaultLanguage: "en"}
	return NewService(bot.NewService(nil, client, cfg))
}

func TestServiceAuthorization(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := newTestService(t)

	if err := a.SetChatTrigger(ctx, strangerID, chatID, "казино", 9); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger err = %v, want ErrPermissionDenied", err)
	}
	if err := a.SetChatTrigger(ctx, ownerID, chatID, "казино", 9); err != nil {
		t.Fatalf("owner err = %v", err)
	}
	if err := a.SetChatTrigger(ctx, globalAdminID, chatID, "лотерея", 6); err != nil {
		t.Fatalf("global admin err = %v", err)
	}

	if _, err := a.DailyStats(ctx, strangerID, chatID, "2026-01-01"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger stats err = %v, want ErrPermissionDenied", err)
	}
	if _, err := a.RecentActions(ctx, strangerID, chatID, 5); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger actions err = %v, want ErrPermissionDenied", err)
	}
}

func TestServiceGlobalTriggersNeedGlobalAdmin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := newTestService(t)

	// the chat owner's reach ends at their own chat
	if err := a.SetGlobalTrigger(ctx, ownerID, "спам", 5); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("owner err = %v, want ErrPermissionDenied", err)
	}
	if err := a.SetGlobalTrigger(ctx, globalAdminID, "спам", 5); err != nil {
		t.Fatalf("global admin err = %v", err)
	}
	if err := a.DeleteGlobalTrigger(ctx, globalAdminID, "спам"); err != nil {
		t.Fatalf("delete err = %v", err)
	}
}

func TestServicePunishmentRuleValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := newTestService(t)

	if err := a.SetPunishmentRule(ctx, ownerID, &db.PunishmentRule{
		ChatID: chatID, Level: 1, Action: "warn",
	}); err == nil {
		t.Fatal("unknown action accepted")
	}
	if err := a.SetPunishmentRule(ctx, ownerID, &db.PunishmentRule{
		ChatID: chatID, Level: 0, Action: db.ActionMute,
	}); err == nil {
		t.Fatal("non-positive level accepted")
	}
	if err := a.SetPunishmentRule(ctx, ownerID, &db.PunishmentRule{
		ChatID: chatID, Level: 1, Action: db.ActionMute, DurationMinutes: 60,
	}); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
}
