package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/pakhadai/wartovyi/internal/db"
	"github.com/pakhadai/wartovyi/resources"
)

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

func NewSQLiteClient(ctx context.Context, stateDir, dbName string) (*sqliteClient, error) {
	dbx, err := sqlx.Open("sqlite", filepath.Join(stateDir, dbName))
	if err != nil {
		return nil, err
	}
	dbx.SetMaxOpenConns(42)

	if err := dbx.PingContext(ctx); err != nil {
		return nil, err
	}

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.Exec(dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		log.Infof("applied %d migrations!", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (s *sqliteClient) Close() error {
	return s.db.Close()
}

// GetSettings returns (nil, nil) for chats that were never registered,
// the caller substitutes defaults.
func (s *sqliteClient) GetSettings(ctx context.Context, chatID int64) (*db.Settings, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var settings db.Settings
	err := s.db.GetContext(ctx, &settings, `SELECT * FROM chats WHERE chat_id = ?`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *sqliteClient) SetSettings(ctx context.Context, settings *db.Settings) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO chats (chat_id, title, language, spam_threshold, captcha_enabled,
			spam_filter_enabled, antiflood_enabled, antiflood_sensitivity,
			use_global_list, use_custom_list)
		VALUES (:chat_id, :title, :language, :spam_threshold, :captcha_enabled,
			:spam_filter_enabled, :antiflood_enabled, :antiflood_sensitivity,
			:use_global_list, :use_custom_list)
		ON CONFLICT(chat_id) DO UPDATE SET
			title=excluded.title,
			language=excluded.language,
			spam_threshold=excluded.spam_threshold,
			captcha_enabled=excluded.captcha_enabled,
			spam_filter_enabled=excluded.spam_filter_enabled,
			antiflood_enabled=excluded.antiflood_enabled,
			antiflood_sensitivity=excluded.antiflood_sensitivity,
			use_global_list=excluded.use_global_list,
			use_custom_list=excluded.use_custom_list
	`
	_, err := s.db.NamedExecContext(ctx, query, settings)
	return err
}

func (s *sqliteClient) RegisterChat(ctx context.Context, chatID int64, title, language string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO chats (chat_id, title, language) VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET title=excluded.title
	`
	_, err := s.db.ExecContext(ctx, query, chatID, title, language)
	return err
}

func (s *sqliteClient) GetChatOwner(ctx context.Context, chatID int64) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var userID int64
	err := s.db.GetContext(ctx, &userID, `SELECT user_id FROM chat_owners WHERE chat_id = ?`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, db.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *sqliteClient) SetChatOwner(ctx context.Context, chatID int64, userID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO chat_owners (chat_id, user_id) VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET user_id=excluded.user_id
	`
	_, err := s.db.ExecContext(ctx, query, chatID, userID)
	return err
}

// PurgeChat drops every row scoped to the chat. Used when the bot is
// kicked, the next promotion starts from a clean slate.
func (s *sqliteClient) PurgeChat(ctx context.Context, chatID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []string{
		"chats", "chat_owners", "chat_triggers", "chat_whitelist",
		"warnings", "punishment_rules", "action_logs", "daily_stats",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE chat_id = ?`, chatID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
