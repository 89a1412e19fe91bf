package handlers

import (
	"fmt"
	"math/rand"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"
)

const (
	captchaCallbackPrefix = "captcha;"
	captchaDecoys         = 3
)

var (
	humanEmojis = []string{"👨", "👩", "👶", "👴", "👵", "🧑", "👱", "👲", "🧔"}
	robotEmojis = []string{"🤖", "👾", "👽", "🛸", "🎮", "💾", "🖥️", "⚙️", "🔧"}
)

// createCaptchaButtons builds a one-row keyboard with a single human
// emoji among distinct robot decoys, shuffled. Only the human button
// carries the success nonce, every decoy gets a throwaway one, the
// payload never reveals the answer.
func createCaptchaButtons(userID int64, successUUID string) ([]api.InlineKeyboardButton, string) {
	correct := humanEmojis[rand.Intn(len(humanEmojis))]

	decoys := make([]string, 0, captchaDecoys)
	usedIDs := make(map[int]struct{}, captchaDecoys)
	for len(decoys) < captchaDecoys {
		id := rand.Intn(len(robotEmojis))
		if _, ok := usedIDs[id]; ok {
			continue
		}
		usedIDs[id] = struct{}{}
		decoys = append(decoys, robotEmojis[id])
	}

	variants := append([]string{correct}, decoys...)
	rand.Shuffle(len(variants), func(i, j int) {
		variants[i], variants[j] = variants[j], variants[i]
	})

	buttons := make([]api.InlineKeyboardButton, 0, len(variants))
	for _, emoji := range variants {
		nonce := uuid.New()
		if emoji == correct {
			nonce = successUUID
		}
		data := fmt.Sprintf("%s%d;%s", captchaCallbackPrefix, userID, nonce)
		buttons = append(buttons, api.NewInlineKeyboardButtonData(emoji, data))
	}
	return buttons, correct
}
