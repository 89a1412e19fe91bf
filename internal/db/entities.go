package db

import "time"

type (
	// Settings is the per-chat moderation profile. One row per registered chat.
	Settings struct {
		ChatID               int64  `db:"chat_id"`
		Title                string `db:"title"`
		Language             string `db:"language"`
		SpamThreshold        int    `db:"spam_threshold"`
		CaptchaEnabled       bool   `db:"captcha_enabled"`
		SpamFilterEnabled    bool   `db:"spam_filter_enabled"`
		AntifloodEnabled     bool   `db:"antiflood_enabled"`
		AntifloodSensitivity int    `db:"antiflood_sensitivity"`
		UseGlobalList        bool   `db:"use_global_list"`
		UseCustomList        bool   `db:"use_custom_list"`
	}

	Trigger struct {
		Phrase string `db:"phrase"`
		Score  int    `db:"score"`
	}

	PunishmentRule struct {
		ChatID          int64  `db:"chat_id"`
		Level           int    `db:"level"`
		Action          string `db:"action"`
		DurationMinutes int    `db:"duration_minutes"`
	}

	ActionLogEntry struct {
		ID        int64     `db:"id"`
		ChatID    int64     `db:"chat_id"`
		UserID    int64     `db:"user_id"`
		Action    string    `db:"action"`
		Reason    string    `db:"reason"`
		CreatedAt time.Time `db:"created_at"`
	}

	DailyStats struct {
		ChatID          int64  `db:"chat_id"`
		Date            string `db:"date"`
		MessagesTotal   int    `db:"messages_total"`
		MessagesDeleted int    `db:"messages_deleted"`
		UsersJoined     int    `db:"users_joined"`
		UsersLeft       int    `db:"users_left"`
		CaptchaPassed   int    `db:"captcha_passed"`
		CaptchaFailed   int    `db:"captcha_failed"`
		WarningsGiven   int    `db:"warnings_given"`
		BansGiven       int    `db:"bans_given"`
	}

	ViolatorStat struct {
		UserID int64 `db:"user_id"`
		Count  int   `db:"count"`
	}
)

const (
	ActionMute = "mute"
	ActionBan  = "ban"
)
