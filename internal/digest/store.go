package digest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DateLayout задаёт формат даты в имени файла и в маркере.
const DateLayout = "2006-01-02"

const (
	filePrefix = "tech_news_"
	fileSuffix = ".pdf"
)

// ErrNotFound возвращается, когда для идентификатора нет дайджеста.
var ErrNotFound = errors.New("digest not found")

// Store знает, где лежат PDF-дайджесты: один файл на дату.
type Store struct {
	dir string
}

// NewStore создаёт хранилище в каталоге dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir возвращает каталог с дайджестами.
func (s *Store) Dir() string {
	return s.dir
}

// Filename возвращает имя файла для даты, например tech_news_2026-10-18.pdf.
func Filename(date string) string {
	return filePrefix + date + fileSuffix
}

// ParseFilename извлекает дату из имени файла дайджеста.
func ParseFilename(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	date := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", false
	}
	return date, true
}

// Path возвращает путь к дайджесту за дату.
func (s *Store) Path(date string) string {
	return filepath.Join(s.dir, Filename(date))
}

// Exists проверяет, собран ли дайджест за дату.
func (s *Store) Exists(date string) bool {
	info, err := os.Stat(s.Path(date))
	return err == nil && info.Mode().IsRegular()
}

// Dates возвращает даты всех дайджестов на диске, по убыванию.
// Посторонние файлы в каталоге пропускаются.
func (s *Store) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read digest directory: %w", err)
	}

	var dates []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if date, ok := ParseFilename(e.Name()); ok {
			dates = append(dates, date)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// Resolve превращает идентификатор для скачивания (имя файла) в путь.
// Принимаются только имена дайджестов, на пути и чужие файлы возвращается ErrNotFound.
func (s *Store) Resolve(name string) (string, error) {
	if name != filepath.Base(name) {
		return "", ErrNotFound
	}
	date, ok := ParseFilename(name)
	if !ok || !s.Exists(date) {
		return "", ErrNotFound
	}
	return s.Path(date), nil
}
