package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pakhadai/wartovyi/internal/bot"
	"github.com/pakhadai/wartovyi/internal/config"
	"github.com/pakhadai/wartovyi/internal/db"
	"github.com/pakhadai/wartovyi/internal/event"
	"github.com/pakhadai/wartovyi/internal/i18n"
	"github.com/pakhadai/wartovyi/internal/observability"
)

// Gatekeeper challenges every new member with an emoji captcha and keeps
// them restricted until they pass.
type Gatekeeper struct {
	s          bot.Service
	cfg        config.Config
	engine     *ChallengeEngine
	dispatcher *event.Dispatcher
}

func NewGatekeeper(s bot.Service, cfg config.Config, dispatcher *event.Dispatcher) *Gatekeeper {
	g := &Gatekeeper{
		s:          s,
		cfg:        cfg,
		dispatcher: dispatcher,
	}
	g.engine = NewChallengeEngine(cfg.Moderation.ChallengeTimeout, g.onExpire)
	return g
}

func (g *Gatekeeper) Start(ctx context.Context) error {
	return nil
}

func (g *Gatekeeper) Stop(ctx context.Context) error {
	g.engine.Shutdown()
	return nil
}

// ForgetChat cancels every pending challenge for a purged chat.
func (g *Gatekeeper) ForgetChat(chatID int64) {
	g.engine.Forget(chatID)
}

func (g *Gatekeeper) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u.CallbackQuery != nil && strings.HasPrefix(u.CallbackQuery.Data, captchaCallbackPrefix) {
		return false, g.handleChallenge(ctx, u.CallbackQuery, chat, user)
	}

	if u.ChatMember != nil {
		return false, g.handleMembershipChange(ctx, chat, u.ChatMember)
	}

	msg := u.Message
	if msg == nil || chat == nil || chat.IsPrivate() {
		return true, nil
	}

	// join and leave service messages carry no state the membership
	// transitions don't, they pass through untouched
	if msg.NewChatMembers != nil || msg.LeftChatMember != nil {
		return true, nil
	}

	// messages from a user with a pending challenge vanish, they are
	// muted anyway and anything that slips through is noise
	if user != nil {
		if _, pending := g.engine.Get(chat.ID, user.ID); pending {
			if err := bot.DeleteChatMessage(ctx, g.s.GetBot(), chat.ID, msg.MessageID); err != nil {
				g.getLogEntry().WithError(err).Debug("cant delete pending joiner message")
			}
			return false, nil
		}
	}

	return true, nil
}

// isGenuineJoin reports a real out-to-in transition. Promotions,
// restriction changes and repeated member events don't count.
func isGenuineJoin(mc *api.ChatMemberUpdated) bool {
	return mc.NewChatMember.Status == "member" &&
		(mc.OldChatMember.HasLeft() || mc.OldChatMember.WasKicked())
}

func isDeparture(mc *api.ChatMemberUpdated) bool {
	return (mc.NewChatMember.HasLeft() || mc.NewChatMember.WasKicked()) &&
		!(mc.OldChatMember.HasLeft() || mc.OldChatMember.WasKicked())
}

func (g *Gatekeeper) handleMembershipChange(ctx context.Context, chat *api.Chat, mc *api.ChatMemberUpdated) error {
	entry := g.getLogEntry().WithField("method", "handleMembershipChange")
	if chat == nil || chat.IsPrivate() {
		return nil
	}
	member := mc.NewChatMember.User
	if member == nil {
		return nil
	}

	switch {
	case isGenuineJoin(mc):
		g.bumpStat(chat.ID, "users_joined")
		if member.IsBot {
			return nil
		}
		settings, err := g.s.GetSettings(ctx, chat.ID)
		if err != nil {
			entry.WithError(err).Error("cant get settings, using defaults")
			settings = db.DefaultSettings(chat.ID)
		}
		if !settings.CaptchaEnabled {
			return nil
		}
		if err := g.challengeJoiner(ctx, chat, member); err != nil {
			entry.WithError(err).WithField("user_id", member.ID).Error("cant challenge joiner")
		}

	case isDeparture(mc):
		g.bumpStat(chat.ID, "users_left")
		g.engine.ForgetUser(chat.ID, member.ID)
	}
	return nil
}

func (g *Gatekeeper) challengeJoiner(ctx context.Context, chat *api.Chat, joiner *api.User) error {
	if err := bot.RestrictChatting(ctx, g.s.GetBot(), joiner.ID, chat.ID, 0); err != nil {
		return errors.WithMessage(err, "cant restrict joiner")
	}

	successUUID := uuid.New()
	g.engine.Issue(chat.ID, joiner.ID, successUUID)

	buttons, _ := createCaptchaButtons(joiner.ID, successUUID)
	lang := g.s.GetLanguage(ctx, chat.ID, joiner)

	welcome := api.NewMessage(chat.ID, fmt.Sprintf(
		i18n.Get("Welcome, %s! Please prove you are human and tap the human emoji below.", lang),
		mention(joiner),
	))
	welcome.ParseMode = api.ModeMarkdown
	welcome.ReplyMarkup = api.NewInlineKeyboardMarkup(api.NewInlineKeyboardRow(buttons...))

	sent, err := g.s.GetBot().Send(welcome)
	if err != nil {
		return errors.WithMessage(err, "cant send challenge message")
	}
	g.engine.SetMessageID(chat.ID, joiner.ID, sent.MessageID)
	return nil
}

func (g *Gatekeeper) handleChallenge(ctx context.Context, cq *api.CallbackQuery, chat *api.Chat, user *api.User) error {
	entry := g.getLogEntry().WithField("method", "handleChallenge")
	if chat == nil || user == nil {
		return nil
	}
	b := g.s.GetBot()

	parts := strings.Split(cq.Data, ";")
	if len(parts) != 3 {
		return errors.Errorf("unexpected captcha callback data %q", cq.Data)
	}
	challengedID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return errors.WithMessage(err, "cant parse challenged user ID")
	}
	nonce := parts[2]

	lang := g.s.GetLanguage(ctx, chat.ID, user)
	outcome, remaining := g.engine.Answer(chat.ID, challengedID, user.ID, nonce)

	switch outcome {
	case OutcomeWrongClaimant:
		_, _ = b.Request(api.NewCallbackWithAlert(cq.ID, i18n.Get("This check is not for you", lang)))

	case OutcomeStale:
		_, _ = b.Request(api.NewCallback(cq.ID, ""))

	case OutcomeCorrect:
		observability.RecordCaptchaOutcome("passed")
		g.bumpStat(chat.ID, "captcha_passed")
		if err := bot.UnrestrictChatting(ctx, b, user.ID, chat.ID); err != nil {
			entry.WithError(err).Error("cant unrestrict verified user")
		}
		g.editChallengeMessage(cq, fmt.Sprintf(i18n.Get("Welcome aboard, %s!", lang), bot.GetFullName(user)))
		_, _ = b.Request(api.NewCallback(cq.ID, i18n.Get("Verified, welcome!", lang)))

	case OutcomeIncorrect:
		_, _ = b.Request(api.NewCallbackWithAlert(cq.ID,
			fmt.Sprintf(i18n.Get("Wrong answer, %d attempts left", lang), remaining)))

	case OutcomeTooManyAttempts:
		observability.RecordCaptchaOutcome("failed")
		g.bumpStat(chat.ID, "captcha_failed")
		g.editChallengeMessage(cq, i18n.Get("Verification failed, the user was removed", lang))
		if err := bot.KickUser(ctx, b, user.ID, chat.ID); err != nil {
			entry.WithError(err).Error("cant kick failed joiner")
		}
		_, _ = b.Request(api.NewCallbackWithAlert(cq.ID, i18n.Get("Too many wrong answers", lang)))
	}
	return nil
}

// onExpire fires from the challenge timer, outside any update, so it
// builds its own context.
func (g *Gatekeeper) onExpire(challenge Challenge) {
	entry := g.getLogEntry().WithFields(log.Fields{
		"chat_id": challenge.ChatID,
		"user_id": challenge.UserID,
	})
	entry.Info("challenge expired")

	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.Moderation.NoticeTTL)
	defer cancel()

	observability.RecordCaptchaOutcome("timeout")
	g.bumpStat(challenge.ChatID, "captcha_failed")

	lang := g.s.GetLanguage(ctx, challenge.ChatID, nil)
	if challenge.MessageID != 0 {
		if err := bot.DeleteChatMessage(ctx, g.s.GetBot(), challenge.ChatID, challenge.MessageID); err != nil {
			entry.WithError(err).Error("cant delete challenge message")
		}
	}
	if err := bot.KickUser(ctx, g.s.GetBot(), challenge.UserID, challenge.ChatID); err != nil {
		entry.WithError(err).Error("cant kick expired joiner")
	}

	notice := api.NewMessage(challenge.ChatID,
		i18n.Get("Verification timed out, the user was removed", lang))
	notice.DisableNotification = true
	if _, err := g.s.GetBot().Send(notice); err != nil {
		entry.WithError(err).Error("cant send timeout notice")
	}
}

func (g *Gatekeeper) editChallengeMessage(cq *api.CallbackQuery, text string) {
	if cq.Message == nil {
		return
	}
	edit := api.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, text)
	if _, err := g.s.GetBot().Request(edit); err != nil {
		g.getLogEntry().WithError(err).Error("cant edit challenge message")
	}
}

func (g *Gatekeeper) bumpStat(chatID int64, field string) {
	g.dispatcher.Enqueue(event.Task{
		Kind: "stat:" + field,
		Run: func(ctx context.Context) error {
			return g.s.GetDB().IncrementDailyStat(ctx, chatID, field)
		},
	})
}

func (g *Gatekeeper) getLogEntry() *log.Entry {
	return log.WithField("context", "gatekeeper")
}

func mention(user *api.User) string {
	return fmt.Sprintf("[%s](tg://user?id=%d)",
		api.EscapeText(api.ModeMarkdown, bot.GetFullName(user)), user.ID)
}
