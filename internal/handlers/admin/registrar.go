package handlers

import (
	"context"
	"fmt"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	log "github.com/sirupsen/logrus"

	"github.com/pakhadai/wartovyi/internal/config"
	"github.com/pakhadai/wartovyi/internal/db"
	"github.com/pakhadai/wartovyi/internal/i18n"
)

type registrarService interface {
	GetBot() *api.BotAPI
	GetDB() db.Client
	GetLanguage(ctx context.Context, chatID int64, user *api.User) string
}

// ChatStateResetter drops a handler's in-memory state for a chat,
// pending challenge timers and flood windows must not outlive a purge.
type ChatStateResetter interface {
	ForgetChat(chatID int64)
}

// Registrar reacts to the bot's own membership changes: a promotion
// registers the chat with the promoter as owner, an eviction purges
// everything the bot knew about it.
type Registrar struct {
	s         registrarService
	cfg       config.Config
	resetters []ChatStateResetter
}

func NewRegistrar(s registrarService, cfg config.Config, resetters ...ChatStateResetter) *Registrar {
	return &Registrar{s: s, cfg: cfg, resetters: resetters}
}

func (r *Registrar) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u.MyChatMember == nil {
		return true, nil
	}
	mcm := u.MyChatMember
	if chat == nil || chat.IsPrivate() {
		return false, nil
	}

	entry := r.getLogEntry().WithField("chat_id", chat.ID)

	switch {
	case mcm.NewChatMember.IsAdministrator():
		entry.WithField("owner_id", mcm.From.ID).Info("promoted, registering chat")
		return false, r.register(ctx, chat, &mcm.From)

	case mcm.NewChatMember.HasLeft(), mcm.NewChatMember.WasKicked():
		entry.Info("removed from chat, purging")
		for _, resetter := range r.resetters {
			resetter.ForgetChat(chat.ID)
		}
		return false, r.s.GetDB().PurgeChat(ctx, chat.ID)
	}

	return false, nil
}

func (r *Registrar) register(ctx context.Context, chat *api.Chat, owner *api.User) error {
	if err := r.s.GetDB().RegisterChat(ctx, chat.ID, chat.Title, r.cfg.DefaultLanguage); err != nil {
		return err
	}
	if err := r.s.GetDB().SetChatOwner(ctx, chat.ID, owner.ID); err != nil {
		return err
	}

	lang := r.s.GetLanguage(ctx, chat.ID, owner)
	greeting := api.NewMessage(owner.ID, fmt.Sprintf(
		i18n.Get("Hi! You added me to «%s». You can now manage its moderation settings.", lang),
		chat.Title,
	))
	// users who never opened a DM with the bot cant be greeted, not an error
	if err := tool.Err(r.s.GetBot().Send(greeting)); err != nil {
		r.getLogEntry().WithError(err).Debug("cant greet owner")
	}
	return nil
}

func (r *Registrar) getLogEntry() *log.Entry {
	return log.WithField("context", "registrar")
}
