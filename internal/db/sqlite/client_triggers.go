package sqlite

import (
	"context"

	"github.com/pakhadai/wartovyi/internal/db"
)

// Trigger lists are returned in insertion order so the scorer merges
// them deterministically.

func (s *sqliteClient) GlobalTriggers(ctx context.Context) ([]db.Trigger, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var triggers []db.Trigger
	err := s.db.SelectContext(ctx, &triggers, `SELECT phrase, score FROM global_triggers ORDER BY rowid`)
	return triggers, err
}

func (s *sqliteClient) UpsertGlobalTrigger(ctx context.Context, phrase string, score int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO global_triggers (phrase, score) VALUES (?, ?)
		ON CONFLICT(phrase) DO UPDATE SET score=excluded.score
	`
	_, err := s.db.ExecContext(ctx, query, phrase, score)
	return err
}

func (s *sqliteClient) DeleteGlobalTrigger(ctx context.Context, phrase string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM global_triggers WHERE phrase = ?`, phrase)
	return err
}

func (s *sqliteClient) ChatTriggers(ctx context.Context, chatID int64) ([]db.Trigger, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var triggers []db.Trigger
	err := s.db.SelectContext(ctx, &triggers,
		`SELECT phrase, score FROM chat_triggers WHERE chat_id = ? ORDER BY rowid`, chatID)
	return triggers, err
}

func (s *sqliteClient) UpsertChatTrigger(ctx context.Context, chatID int64, phrase string, score int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO chat_triggers (chat_id, phrase, score) VALUES (?, ?, ?)
		ON CONFLICT(chat_id, phrase) DO UPDATE SET score=excluded.score
	`
	_, err := s.db.ExecContext(ctx, query, chatID, phrase, score)
	return err
}

func (s *sqliteClient) DeleteChatTrigger(ctx context.Context, chatID int64, phrase string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_triggers WHERE chat_id = ? AND phrase = ?`, chatID, phrase)
	return err
}

func (s *sqliteClient) Whitelist(ctx context.Context, chatID int64) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var phrases []string
	err := s.db.SelectContext(ctx, &phrases,
		`SELECT phrase FROM chat_whitelist WHERE chat_id = ? ORDER BY rowid`, chatID)
	return phrases, err
}

func (s *sqliteClient) AddWhitelistPhrase(ctx context.Context, chatID int64, phrase string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chat_whitelist (chat_id, phrase) VALUES (?, ?)`, chatID, phrase)
	return err
}

func (s *sqliteClient) DeleteWhitelistPhrase(ctx context.Context, chatID int64, phrase string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_whitelist WHERE chat_id = ? AND phrase = ?`, chatID, phrase)
	return err
}
