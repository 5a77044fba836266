package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/maine/techbriefs/internal/news"
)

const markerKey = "last_built_date"

// Имена драйверов database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore хранит seen-заголовки и маркер даты в sqlite или postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQL открывает базу и создаёт схему. driver: DriverSQLite или DriverPostgres.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// sqlite не любит параллельных писателей
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS seen_titles (
			title TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close закрывает соединение.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// LoadSeen читает всё множество заголовков.
func (s *SQLStore) LoadSeen(ctx context.Context) (news.SeenSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM seen_titles`)
	if err != nil {
		return nil, fmt.Errorf("query seen titles: %w", err)
	}
	defer rows.Close()

	seen := news.NewSeenSet()
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan seen title: %w", err)
		}
		seen.Add(title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen titles: %w", err)
	}
	return seen, nil
}

// SaveSeen заменяет содержимое таблицы одной транзакцией.
func (s *SQLStore) SaveSeen(ctx context.Context, seen news.SeenSet) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM seen_titles`); err != nil {
		return fmt.Errorf("clear seen titles: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO seen_titles (title) VALUES (?)`))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, title := range seen.Sorted() {
		if _, err = stmt.ExecContext(ctx, title); err != nil {
			return fmt.Errorf("insert seen title: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seen titles: %w", err)
	}
	return nil
}

// LoadMarker возвращает дату последней успешной сборки или "".
func (s *SQLStore) LoadMarker(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM meta WHERE key = ?`), markerKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query marker: %w", err)
	}
	return value, nil
}

// SaveMarker записывает дату последней успешной сборки.
func (s *SQLStore) SaveMarker(ctx context.Context, date string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`), markerKey, date)
	if err != nil {
		return fmt.Errorf("save marker: %w", err)
	}
	return nil
}

// rebind переводит плейсхолдеры "?" в "$N" для postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
