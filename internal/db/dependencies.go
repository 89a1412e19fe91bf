package db

import "context"

type Client interface {
	Close() error

	GetSettings(ctx context.Context, chatID int64) (*Settings, error)
	SetSettings(ctx context.Context, settings *Settings) error
	RegisterChat(ctx context.Context, chatID int64, title, language string) error
	GetChatOwner(ctx context.Context, chatID int64) (int64, error)
	SetChatOwner(ctx context.Context, chatID int64, userID int64) error
	PurgeChat(ctx context.Context, chatID int64) error

	GlobalTriggers(ctx context.Context) ([]Trigger, error)
	UpsertGlobalTrigger(ctx context.Context, phrase string, score int) error
	DeleteGlobalTrigger(ctx context.Context, phrase string) error
	ChatTriggers(ctx context.Context, chatID int64) ([]Trigger, error)
	UpsertChatTrigger(ctx context.Context, chatID int64, phrase string, score int) error
	DeleteChatTrigger(ctx context.Context, chatID int64, phrase string) error
	Whitelist(ctx context.Context, chatID int64) ([]string, error)
	AddWhitelistPhrase(ctx context.Context, chatID int64, phrase string) error
	DeleteWhitelistPhrase(ctx context.Context, chatID int64, phrase string) error

	AddWarning(ctx context.Context, chatID, userID int64) (int, error)
	GetWarnings(ctx context.Context, chatID, userID int64) (int, error)
	ResetWarnings(ctx context.Context, chatID, userID int64) error

	PunishmentLadder(ctx context.Context, chatID int64) ([]PunishmentRule, error)
	SetPunishmentRule(ctx context.Context, rule *PunishmentRule) error
	DeletePunishmentRule(ctx context.Context, chatID int64, level int) error

	LogAction(ctx context.Context, entry *ActionLogEntry) error
	RecentActions(ctx context.Context, chatID int64, limit int) ([]ActionLogEntry, error)
	IncrementDailyStat(ctx context.Context, chatID int64, field string) error
	GetDailyStats(ctx context.Context, chatID int64, date string) (*DailyStats, error)
	TopViolators(ctx context.Context, chatID int64, since string, limit int) ([]ViolatorStat, error)
}
