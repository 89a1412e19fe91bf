package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pakhadai/wartovyi/internal/bot"
	"github.com/pakhadai/wartovyi/internal/i18n"
)

const auditCallbackPrefix = "modlog;"

const auditExcerptLimit = 400

// sendAuditReport DMs the chat owner a breakdown of the removal with
// inline controls to overturn or harden the verdict.
func (m *MessageFilter) sendAuditReport(
	ctx context.Context,
	chat *api.Chat,
	user *api.User,
	score, threshold int,
	reasons []string,
	warnings int,
	punishment Punishment,
	text string,
) {
	entry := m.getLogEntry().WithFields(log.Fields{"chat_id": chat.ID, "user_id": user.ID})

	ownerID := m.s.ResolveOwner(ctx, chat.ID)
	lang := m.s.GetLanguage(ctx, chat.ID, nil)

	excerpt := []rune(text)
	if len(excerpt) > auditExcerptLimit {
		excerpt = excerpt[:auditExcerptLimit]
	}

	var b strings.Builder
	b.WriteString("🚨 ")
	b.WriteString(fmt.Sprintf(
		i18n.Get("Spam from %s in «%s»", lang),
		fmt.Sprintf("%s (id %d)", bot.GetFullName(user), user.ID),
		chat.Title,
	))
	b.WriteString(fmt.Sprintf("\nScore: %d / %d", score, threshold))
	b.WriteString(fmt.Sprintf("\nReasons: %s", strings.Join(reasons, ", ")))
	b.WriteString(fmt.Sprintf("\nWarnings: %d", warnings))
	action := punishment.Action
	if punishment.Duration > 0 {
		action += " " + punishment.Duration.String()
	}
	b.WriteString(fmt.Sprintf("\nAction: %s", action))
	b.WriteString(fmt.Sprintf("\n\n%s", string(excerpt)))

	report := api.NewMessage(ownerID, b.String())
	report.ReplyMarkup = api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData("✅ Unrestrict", auditCallbackData("unrestrict", user.ID, chat.ID)),
			api.NewInlineKeyboardButtonData("🔨 Ban", auditCallbackData("ban", user.ID, chat.ID)),
			api.NewInlineKeyboardButtonData("🙈 Ignore", auditCallbackData("ignore", user.ID, chat.ID)),
		),
	)
	if _, err := m.s.GetBot().Send(report); err != nil {
		entry.WithError(err).Error("cant send audit report")
	}
}

func auditCallbackData(action string, userID, chatID int64) string {
	return fmt.Sprintf("%s%s;%d;%d", auditCallbackPrefix, action, userID, chatID)
}

// handleAuditCallback executes the owner's verdict on a past removal.
func (m *MessageFilter) handleAuditCallback(ctx context.Context, cb *api.CallbackQuery, actor *api.User) error {
	entry := m.getLogEntry().WithField("method", "handleAuditCallback")
	if actor == nil {
		return errors.New("audit callback without a sender")
	}

	parts := strings.Split(cb.Data, ";")
	if len(parts) != 4 {
		return errors.Errorf("unexpected audit callback data %q", cb.Data)
	}
	action := parts[1]
	userID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return errors.WithMessage(err, "parse user id")
	}
	chatID, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return errors.WithMessage(err, "parse chat id")
	}

	lang := m.s.GetLanguage(ctx, chatID, actor)
	if !m.s.IsGlobalAdmin(actor.ID) && m.s.ResolveOwner(ctx, chatID) != actor.ID {
		_, _ = m.s.GetBot().Request(api.NewCallbackWithAlert(cb.ID, i18n.Get("You are not allowed to do that", lang)))
		return nil
	}

	var taken string
	switch action {
	case "unrestrict":
		if err := bot.UnrestrictChatting(ctx, m.s.GetBot(), userID, chatID); err != nil {
			entry.WithError(err).Error("cant unrestrict")
		}
		// a false positive also clears the ladder progress
		if err := m.s.GetDB().ResetWarnings(ctx, chatID, userID); err != nil {
			entry.WithError(err).Error("cant reset warnings")
		}
		taken = i18n.Get("unrestricted", lang)
	case "ban":
		if err := bot.BanUserFromChat(ctx, m.s.GetBot(), userID, chatID, 0); err != nil {
			entry.WithError(err).Error("cant ban")
		}
		m.bumpStat(chatID, "bans_given")
		taken = i18n.Get("banned", lang)
	case "ignore":
		taken = i18n.Get("ignored", lang)
	default:
		return errors.Errorf("unknown audit action %q", action)
	}

	m.logAction(chatID, userID, "audit_"+action, "owner review")

	if cb.Message != nil {
		updated := cb.Message.Text + "\n\n" + fmt.Sprintf(i18n.Get("Action taken: %s", lang), taken)
		edit := api.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, updated)
		if _, err := m.s.GetBot().Request(edit); err != nil {
			entry.WithError(err).Error("cant edit audit report")
		}
	}
	_, _ = m.s.GetBot().Request(api.NewCallback(cb.ID, ""))
	return nil
}
