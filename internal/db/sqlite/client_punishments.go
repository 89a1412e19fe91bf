package sqlite

import (
	"context"

	"github.com/pakhadai/wartovyi/internal/db"
)

func (s *sqliteClient) PunishmentLadder(ctx context.Context, chatID int64) ([]db.PunishmentRule, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var rules []db.PunishmentRule
	err := s.db.SelectContext(ctx, &rules,
		`SELECT chat_id, level, action, duration_minutes FROM punishment_rules WHERE chat_id = ? ORDER BY level`,
		chatID)
	return rules, err
}

func (s *sqliteClient) SetPunishmentRule(ctx context.Context, rule *db.PunishmentRule) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO punishment_rules (chat_id, level, action, duration_minutes)
		VALUES (:chat_id, :level, :action, :duration_minutes)
		ON CONFLICT(chat_id, level) DO UPDATE SET
			action=excluded.action,
			duration_minutes=excluded.duration_minutes
	`
	_, err := s.db.NamedExecContext(ctx, query, rule)
	return err
}

func (s *sqliteClient) DeletePunishmentRule(ctx context.Context, chatID int64, level int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM punishment_rules WHERE chat_id = ? AND level = ?`, chatID, level)
	return err
}
