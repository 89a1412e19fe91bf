package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/pakhadai/wartovyi/internal/bot"
	"github.com/pakhadai/wartovyi/internal/config"
	"github.com/pakhadai/wartovyi/internal/db"
	"github.com/pakhadai/wartovyi/internal/event"
	"github.com/pakhadai/wartovyi/internal/i18n"
	"github.com/pakhadai/wartovyi/internal/observability"
)

// MessageFilter runs every group message through antiflood and the spam
// scorer and applies the punishment ladder to offenders.
type MessageFilter struct {
	s          bot.Service
	cfg        config.Config
	flood      *FloodDetector
	dispatcher *event.Dispatcher

	runtimeCtx context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	started    bool
}

func NewMessageFilter(s bot.Service, cfg config.Config, dispatcher *event.Dispatcher) *MessageFilter {
	return &MessageFilter{
		s:          s,
		cfg:        cfg,
		flood:      NewFloodDetector(),
		dispatcher: dispatcher,
	}
}

func (m *MessageFilter) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.runtimeCtx, m.cancel = context.WithCancel(ctx)
	m.started = true
	return nil
}

func (m *MessageFilter) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ForgetChat drops the flood windows of a purged chat.
func (m *MessageFilter) ForgetChat(chatID int64) {
	m.flood.Forget(chatID)
}

func (m *MessageFilter) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u.CallbackQuery != nil && strings.HasPrefix(u.CallbackQuery.Data, auditCallbackPrefix) {
		return false, m.handleAuditCallback(ctx, u.CallbackQuery, user)
	}

	msg := u.Message
	if msg == nil || chat == nil || user == nil {
		return true, nil
	}
	if chat.IsPrivate() || user.IsBot {
		return true, nil
	}
	// joins and leaves belong to the gatekeeper
	if msg.NewChatMembers != nil || msg.LeftChatMember != nil {
		return true, nil
	}

	entry := m.getLogEntry().WithFields(log.Fields{"chat_id": chat.ID, "user_id": user.ID})

	observability.RecordMessageChecked()
	finish := observability.StartMessageProcessing()
	defer finish("done")

	settings, err := m.s.GetSettings(ctx, chat.ID)
	if err != nil {
		entry.WithError(err).Error("cant get settings, using defaults")
		settings = db.DefaultSettings(chat.ID)
	}

	// antiflood spares nobody, the rate is the offense
	if settings.AntifloodEnabled &&
		m.flood.Track(chat.ID, user.ID, time.Now(), settings.AntifloodSensitivity) {
		return false, m.punishFlood(ctx, chat, user, msg, settings)
	}

	m.bumpStat(chat.ID, "messages_total")

	if !settings.SpamFilterEnabled {
		return true, nil
	}

	if m.isExempt(ctx, chat.ID, user.ID) {
		return true, nil
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		return true, nil
	}

	score, reasons := m.scoreMessage(ctx, chat.ID, text, settings)
	if score < settings.SpamThreshold {
		return true, nil
	}

	entry.WithFields(log.Fields{"score": score, "reasons": reasons}).Info("spam detected")
	return false, m.punishSpam(ctx, chat, user, msg, settings, score, reasons, text)
}

func (m *MessageFilter) scoreMessage(ctx context.Context, chatID int64, text string, settings *db.Settings) (int, []string) {
	entry := m.getLogEntry().WithField("chat_id", chatID)

	var global, custom []db.Trigger
	var whitelist []string
	var err error

	if settings.UseGlobalList {
		if global, err = m.s.GetDB().GlobalTriggers(ctx); err != nil {
			entry.WithError(err).Error("cant load global triggers")
		}
	}
	if settings.UseCustomList {
		if custom, err = m.s.GetDB().ChatTriggers(ctx, chatID); err != nil {
			entry.WithError(err).Error("cant load chat triggers")
		}
		if whitelist, err = m.s.GetDB().Whitelist(ctx, chatID); err != nil {
			entry.WithError(err).Error("cant load whitelist")
		}
	}

	return Score(text, global, custom, whitelist)
}

func (m *MessageFilter) punishFlood(ctx context.Context, chat *api.Chat, user *api.User, msg *api.Message, settings *db.Settings) error {
	entry := m.getLogEntry().WithFields(log.Fields{"chat_id": chat.ID, "user_id": user.ID})
	observability.RecordSpamDetection("flood")

	if err := bot.DeleteChatMessage(ctx, m.s.GetBot(), chat.ID, msg.MessageID); err != nil {
		entry.WithError(err).Error("cant delete flood message")
	}
	m.bumpStat(chat.ID, "messages_deleted")

	// flood is a cooldown, not a ladder offense
	muteFor := m.cfg.Moderation.FloodMuteDuration
	if err := bot.RestrictChatting(ctx, m.s.GetBot(), user.ID, chat.ID, time.Now().Add(muteFor).Unix()); err != nil {
		entry.WithError(err).Error("cant mute flooder")
	}

	lang := m.s.GetLanguage(ctx, chat.ID, user)
	notice := fmt.Sprintf(
		i18n.Get("%s, you are sending messages too fast! Muted for %s.", lang),
		mention(user), muteFor.String(),
	)
	m.sendTempNotice(chat.ID, notice)

	m.logAction(chat.ID, user.ID, "flood_mute", "flood")
	return nil
}

func (m *MessageFilter) punishSpam(
	ctx context.Context,
	chat *api.Chat,
	user *api.User,
	msg *api.Message,
	settings *db.Settings,
	score int,
	reasons []string,
	text string,
) error {
	entry := m.getLogEntry().WithFields(log.Fields{"chat_id": chat.ID, "user_id": user.ID})
	observability.RecordSpamDetection("spam")

	if err := bot.DeleteChatMessage(ctx, m.s.GetBot(), chat.ID, msg.MessageID); err != nil {
		entry.WithError(err).Error("cant delete spam message")
	}
	m.bumpStat(chat.ID, "messages_deleted")

	warnings, err := m.s.GetDB().AddWarning(ctx, chat.ID, user.ID)
	if err != nil {
		entry.WithError(err).Error("cant add warning")
		warnings = 1
	}
	m.bumpStat(chat.ID, "warnings_given")

	ladder, err := m.s.GetDB().PunishmentLadder(ctx, chat.ID)
	if err != nil {
		entry.WithError(err).Error("cant load punishment ladder")
	}
	punishment := Escalate(warnings, ladder)

	lang := m.s.GetLanguage(ctx, chat.ID, user)
	switch punishment.Action {
	case db.ActionBan:
		if err := bot.BanUserFromChat(ctx, m.s.GetBot(), user.ID, chat.ID, 0); err != nil {
			entry.WithError(err).Error("cant ban spammer")
		}
		m.bumpStat(chat.ID, "bans_given")
		m.sendTempNotice(chat.ID, fmt.Sprintf(
			i18n.Get("%s, your message was removed as spam. You are banned.", lang),
			mention(user),
		))
	default:
		if err := bot.RestrictChatting(ctx, m.s.GetBot(), user.ID, chat.ID, time.Now().Add(punishment.Duration).Unix()); err != nil {
			entry.WithError(err).Error("cant mute spammer")
		}
		m.sendTempNotice(chat.ID, fmt.Sprintf(
			i18n.Get("%s, your message was removed as spam. Muted for %s.", lang),
			mention(user), punishment.Duration.String(),
		))
	}

	m.logAction(chat.ID, user.ID, punishment.Action, strings.Join(reasons, ", "))
	m.sendAuditReport(ctx, chat, user, score, settings.SpamThreshold, reasons, warnings, punishment, text)
	return nil
}

// isExempt reports whether the spam filter should leave the user
// alone: the global admin and the registered chat owner are.
func (m *MessageFilter) isExempt(ctx context.Context, chatID, userID int64) bool {
	return m.s.IsGlobalAdmin(userID) || m.s.ResolveOwner(ctx, chatID) == userID
}

// sendTempNotice posts a notice and schedules its deletion, the chat
// stays clean of moderation chatter.
func (m *MessageFilter) sendTempNotice(chatID int64, text string) {
	msg := api.NewMessage(chatID, text)
	msg.ParseMode = api.ModeMarkdown
	sent, err := m.s.GetBot().Send(msg)
	if err != nil {
		m.getLogEntry().WithError(err).Error("cant send notice")
		return
	}
	m.scheduleAfter(m.cfg.Moderation.NoticeTTL, func(runCtx context.Context) {
		if err := bot.DeleteChatMessage(runCtx, m.s.GetBot(), chatID, sent.MessageID); err != nil {
			m.getLogEntry().WithError(err).Debug("cant delete notice")
		}
	})
}

func (m *MessageFilter) bumpStat(chatID int64, field string) {
	m.dispatcher.Enqueue(event.Task{
		Kind: "stat:" + field,
		Run: func(ctx context.Context) error {
			return m.s.GetDB().IncrementDailyStat(ctx, chatID, field)
		},
	})
}

func (m *MessageFilter) logAction(chatID, userID int64, action, reason string) {
	m.dispatcher.Enqueue(event.Task{
		Kind: "action_log",
		Run: func(ctx context.Context) error {
			return m.s.GetDB().LogAction(ctx, &db.ActionLogEntry{
				ChatID:    chatID,
				UserID:    userID,
				Action:    action,
				Reason:    reason,
				CreatedAt: time.Now(),
			})
		},
	})
}

func (m *MessageFilter) scheduleAfter(delay time.Duration, task func(ctx context.Context)) {
	runCtx := m.getRuntimeContext()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-runCtx.Done():
			return
		case <-timer.C:
			task(runCtx)
		}
	}()
}

func (m *MessageFilter) getRuntimeContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runtimeCtx != nil {
		return m.runtimeCtx
	}
	return context.Background()
}

func (m *MessageFilter) getLogEntry() *log.Entry {
	return log.WithField("context", "message_filter")
}

func mention(user *api.User) string {
	return fmt.Sprintf("[%s](tg://user?id=%d)",
		api.EscapeText(api.ModeMarkdown, bot.GetFullName(user)), user.ID)
}
