// Package archive выбирает прошлые дайджесты для показа и скачивания.
package archive

import (
	"sort"
	"time"

	"github.com/maine/techbriefs/internal/digest"
)

const labelLayout = "January 02, 2006"

// Entry описывает строку архива для веб-страницы.
type Entry struct {
	Date  string
	Label string
	File  string
}

// Recent возвращает до limit дат, исключая today, от новых к старым.
// Дубликаты схлопываются. Входной срез не меняется.
func Recent(dates []string, today string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	uniq := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d == today {
			continue
		}
		if _, ok := uniq[d]; ok {
			continue
		}
		uniq[d] = struct{}{}
		out = append(out, d)
	}

	// даты в формате YYYY-MM-DD сортируются лексикографически
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Label форматирует дату для показа: "October 18, 2026".
// Нераспознанная дата возвращается как есть.
func Label(date string) string {
	t, err := time.Parse(digest.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(labelLayout)
}

// Entries строит строки архива для списка дат.
func Entries(dates []string) []Entry {
	out := make([]Entry, 0, len(dates))
	for _, d := range dates {
		out = append(out, Entry{Date: d, Label: Label(d), File: digest.Filename(d)})
	}
	return out
}
