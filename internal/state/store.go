package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/maine/techbriefs/internal/news"
)

// Имена файлов состояния внутри каталога данных.
const (
	SeenFileName   = "seen_titles.json"
	MarkerFileName = "last_updated.txt"
)

// FileStore хранит seen-заголовки в JSON-файле, а маркер даты в текстовом.
type FileStore struct {
	seenPath   string
	markerPath string
}

// NewFileStore создаёт файловый стор в каталоге dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		seenPath:   filepath.Join(dir, SeenFileName),
		markerPath: filepath.Join(dir, MarkerFileName),
	}
}

// LoadSeen читает множество заголовков. Если файла нет, возвращается пустое множество.
func (s *FileStore) LoadSeen(ctx context.Context) (news.SeenSet, error) {
	data, err := os.ReadFile(s.seenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return news.NewSeenSet(), nil
		}
		return nil, fmt.Errorf("read seen file: %w", err)
	}

	var titles []string
	if err := json.Unmarshal(data, &titles); err != nil {
		// Повреждённый файл откладываем в .broken и начинаем с пустого множества
		brokenPath := s.seenPath + ".broken"
		_ = os.WriteFile(brokenPath, data, 0644)
		log.Printf("Seen file %s is corrupted, moved copy to %s: %v", s.seenPath, brokenPath, err)
		return news.NewSeenSet(), nil
	}

	return news.NewSeenSet(titles...), nil
}

// SaveSeen перезаписывает множество целиком, заголовки отсортированы.
func (s *FileStore) SaveSeen(ctx context.Context, seen news.SeenSet) error {
	data, err := json.MarshalIndent(seen.Sorted(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seen titles: %w", err)
	}
	if err := writeAtomic(s.seenPath, data); err != nil {
		return fmt.Errorf("save seen titles: %w", err)
	}
	return nil
}

// LoadMarker возвращает дату последней успешной сборки или "", если маркера нет.
func (s *FileStore) LoadMarker(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.markerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read marker file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveMarker записывает дату последней успешной сборки.
func (s *FileStore) SaveMarker(ctx context.Context, date string) error {
	if err := writeAtomic(s.markerPath, []byte(date)); err != nil {
		return fmt.Errorf("save marker: %w", err)
	}
	return nil
}

// writeAtomic пишет через временный файл и rename.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
