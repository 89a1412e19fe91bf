package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/pakhadai/wartovyi/internal/bot"
	"github.com/pakhadai/wartovyi/internal/db"
)

var ErrPermissionDenied = errors.New("permission denied")

// Service is the management surface for chat owners and the global
// admin: trigger lists, whitelist, ladder, settings and reports. Every
// mutating call is authorized against the chat it touches.
type Service struct {
	s bot.Service
}

func NewService(s bot.Service) *Service {
	return &Service{s: s}
}

func (a *Service) authorize(ctx context.Context, chatID, actorID int64) error {
	if a.s.IsGlobalAdmin(actorID) {
		return nil
	}
	if a.s.ResolveOwner(ctx, chatID) == actorID {
		return nil
	}
	return ErrPermissionDenied
}

func (a *Service) UpdateSettings(ctx context.Context, actorID int64, settings *db.Settings) error {
	if err := a.authorize(ctx, settings.ChatID, actorID); err != nil {
		return err
	}
	return a.s.SetSettings(ctx, settings)
}

// Global trigger management is reserved for the global admin.

func (a *Service) SetGlobalTrigger(ctx context.Context, actorID int64, phrase string, score int) error {
	if !a.s.IsGlobalAdmin(actorID) {
		return ErrPermissionDenied
	}
	return a.s.GetDB().UpsertGlobalTrigger(ctx, phrase, score)
}

func (a *Service) DeleteGlobalTrigger(ctx context.Context, actorID int64, phrase string) error {
	if !a.s.IsGlobalAdmin(actorID) {
		return ErrPermissionDenied
	}
	return a.s.GetDB().DeleteGlobalTrigger(ctx, phrase)
}

func (a *Service) SetChatTrigger(ctx context.Context, actorID, chatID int64, phrase string, score int) error {
	if err := a.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	return a.s.GetDB().UpsertChatTrigger(ctx, chatID, phrase, score)
}

func (a *Service) DeleteChatTrigger(ctx context.Context, actorID, chatID int64, phrase string) error {
	if err := a.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	return a.s.GetDB().DeleteChatTrigger(ctx, chatID, phrase)
}

func (a *Service) AddWhitelistPhrase(ctx context.Context, actorID, chatID int64, phrase string) error {
	if err := a.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	return a.s.GetDB().AddWhitelistPhrase(ctx, chatID, phrase)
}

func (a *Service) DeleteWhitelistPhrase(ctx context.Context, actorID, chatID int64, phrase string) error {
	if err := a.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	return a.s.GetDB().DeleteWhitelistPhrase(ctx, chatID, phrase)
}

func (a *Service) SetPunishmentRule(ctx context.Context, actorID int64, rule *db.PunishmentRule) error {
	if err := a.authorize(ctx, rule.ChatID, actorID); err != nil {
		return err
	}
	if rule.Action != db.ActionMute && rule.Action != db.ActionBan {
		return errors.Errorf("unknown punishment action %q", rule.Action)
	}
	if rule.Level < 1 {
		return errors.Errorf("punishment level must be positive, got %d", rule.Level)
	}
	return a.s.GetDB().SetPunishmentRule(ctx, rule)
}

func (a *Service) DeletePunishmentRule(ctx context.Context, actorID, chatID int64, level int) error {
	if err := a.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	return a.s.GetDB().DeletePunishmentRule(ctx, chatID, level)
}

func (a *Service) ResetWarnings(ctx context.Context, actorID, chatID, userID int64) error {
	if err := a.authorize(ctx, chatID, actorID); err != nil {
		return err
	}
	return a.s.GetDB().ResetWarnings(ctx, chatID, userID)
}

func (a *Service) DailyStats(ctx context.Context, actorID, chatID int64, date string) (*db.DailyStats, error) {
	if err := a.authorize(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	return a.s.GetDB().GetDailyStats(ctx, chatID, date)
}

func (a *Service) TopViolators(ctx context.Context, actorID, chatID int64, since string, limit int) ([]db.ViolatorStat, error) {
	if err := a.authorize(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	return a.s.GetDB().TopViolators(ctx, chatID, since, limit)
}

func (a *Service) RecentActions(ctx context.Context, actorID, chatID int64, limit int) ([]db.ActionLogEntry, error) {
	if err := a.authorize(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	return a.s.GetDB().RecentActions(ctx, chatID, limit)
}
