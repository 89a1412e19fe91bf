package bot

import (
	"context"
	"errors"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/pakhadai/wartovyi/internal/config"
	"github.com/pakhadai/wartovyi/internal/db"
	"github.com/pakhadai/wartovyi/internal/i18n"
)

type service struct {
	bot *api.BotAPI
	db  db.Client
	cfg config.Config
}

func NewService(bot *api.BotAPI, dbClient db.Client, cfg config.Config) *service {
	return &service{
		bot: bot,
		db:  dbClient,
		cfg: cfg,
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetDB() db.Client {
	return s.db
}

// GetSettings returns the chat's stored profile, falling back to defaults
// tuned by the process config for chats that never got registered.
func (s *service) GetSettings(ctx context.Context, chatID int64) (*db.Settings, error) {
	settings, err := s.db.GetSettings(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = db.DefaultSettings(chatID)
		settings.Language = s.cfg.DefaultLanguage
		settings.SpamThreshold = s.cfg.Moderation.SpamThreshold
		settings.AntifloodSensitivity = s.cfg.Moderation.FloodSensitivity
	}
	return settings, nil
}

func (s *service) SetSettings(ctx context.Context, settings *db.Settings) error {
	return s.db.SetSettings(ctx, settings)
}

// ResolveOwner returns who receives audit reports for the chat, the
// registered owner or the global admin when nobody registered it.
func (s *service) ResolveOwner(ctx context.Context, chatID int64) int64 {
	ownerID, err := s.db.GetChatOwner(ctx, chatID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.WithError(err).WithField("chat_id", chatID).Error("cant resolve chat owner")
		}
		return s.cfg.AdminID
	}
	return ownerID
}

func (s *service) IsGlobalAdmin(userID int64) bool {
	return userID == s.cfg.AdminID
}

func (s *service) GetLanguage(ctx context.Context, chatID int64, user *api.User) string {
	declared := s.cfg.DefaultLanguage
	if settings, err := s.GetSettings(ctx, chatID); err == nil && settings != nil {
		declared = settings.Language
	}
	detected := ""
	if user != nil {
		detected = user.LanguageCode
	}
	return i18n.Resolve(declared, detected)
}
