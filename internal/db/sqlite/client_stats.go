package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pakhadai/wartovyi/internal/db"
)

func (s *sqliteClient) LogAction(ctx context.Context, entry *db.ActionLogEntry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO action_logs (chat_id, user_id, action, reason, created_at)
		VALUES (:chat_id, :user_id, :action, :reason, :created_at)
	`
	_, err := s.db.NamedExecContext(ctx, query, entry)
	return err
}

func (s *sqliteClient) RecentActions(ctx context.Context, chatID int64, limit int) ([]db.ActionLogEntry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var entries []db.ActionLogEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, chat_id, user_id, action, reason, created_at
		FROM action_logs
		WHERE chat_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, chatID, limit)
	return entries, err
}

var statFields = map[string]struct{}{
	"messages_total":   {},
	"messages_deleted": {},
	"users_joined":     {},
	"users_left":       {},
	"captcha_passed":   {},
	"captcha_failed":   {},
	"warnings_given":   {},
	"bans_given":       {},
}

// IncrementDailyStat bumps a single counter on today's row, creating the
// row on first touch. The field name is matched against a fixed set, it
// never reaches the query as user input.
func (s *sqliteClient) IncrementDailyStat(ctx context.Context, chatID int64, field string) error {
	if _, ok := statFields[field]; !ok {
		return fmt.Errorf("unknown stat field %q", field)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := fmt.Sprintf(`
		INSERT INTO daily_stats (chat_id, date, %[1]s) VALUES (?, date('now'), 1)
		ON CONFLICT(chat_id, date) DO UPDATE SET %[1]s=%[1]s+1
	`, field)
	_, err := s.db.ExecContext(ctx, query, chatID)
	return err
}

func (s *sqliteClient) GetDailyStats(ctx context.Context, chatID int64, date string) (*db.DailyStats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var stats db.DailyStats
	err := s.db.GetContext(ctx, &stats, `SELECT * FROM daily_stats WHERE chat_id = ? AND date = ?`, chatID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return &db.DailyStats{ChatID: chatID, Date: date}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *sqliteClient) TopViolators(ctx context.Context, chatID int64, since string, limit int) ([]db.ViolatorStat, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var stats []db.ViolatorStat
	err := s.db.SelectContext(ctx, &stats, `
		SELECT user_id, COUNT(*) AS count
		FROM action_logs
		WHERE chat_id = ? AND created_at >= ?
		GROUP BY user_id
		ORDER BY count DESC
		LIMIT ?
	`, chatID, since, limit)
	return stats, err
}
