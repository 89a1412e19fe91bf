package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

// AddWarning bumps the user's warning count and returns the new total.
func (s *sqliteClient) AddWarning(ctx context.Context, chatID, userID int64) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO warnings (chat_id, user_id, count) VALUES (?, ?, 1)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET count=count+1
		RETURNING count
	`
	var count int
	if err := s.db.GetContext(ctx, &count, query, chatID, userID); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *sqliteClient) GetWarnings(ctx context.Context, chatID, userID int64) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT count FROM warnings WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *sqliteClient) ResetWarnings(ctx context.Context, chatID, userID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM warnings WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	return err
}
