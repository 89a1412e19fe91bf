package db

import "errors"

var ErrNotFound = errors.New("not found")

// DefaultSettings is the profile used for chats the bot was never
// promoted in. Custom trigger lists stay off until someone owns the chat.
func DefaultSettings(chatID int64) *Settings {
	return &Settings{
		ChatID:               chatID,
		Language:             "en",
		SpamThreshold:        10,
		CaptchaEnabled:       true,
		SpamFilterEnabled:    true,
		AntifloodEnabled:     true,
		AntifloodSensitivity: 5,
		UseGlobalList:        true,
		UseCustomList:        false,
	}
}
