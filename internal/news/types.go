package news

import "sort"

// RawEntry описывает запись сразу после получения из источника.
type RawEntry struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Link    string `json:"link"`
}

// Article — отобранная новость, попадающая в дайджест.
// Title уникален в пределах одного дайджеста.
type Article struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Link    string `json:"link"`
}

// FetchResult содержит итог сбора записей со всех источников.
type FetchResult struct {
	Entries []RawEntry
	Failed  int     // количество источников, завершившихся ошибкой
	Errors  []error // ошибки по источникам, в порядке обхода
}

// SeenSet хранит заголовки, уже попавшие в прошлые дайджесты.
type SeenSet map[string]struct{}

// NewSeenSet создаёт множество из списка заголовков.
func NewSeenSet(titles ...string) SeenSet {
	s := make(SeenSet, len(titles))
	for _, t := range titles {
		s[t] = struct{}{}
	}
	return s
}

// Has сообщает, встречался ли заголовок раньше.
func (s SeenSet) Has(title string) bool {
	_, ok := s[title]
	return ok
}

// Add добавляет заголовок.
func (s SeenSet) Add(title string) {
	s[title] = struct{}{}
}

// Len возвращает размер множества.
func (s SeenSet) Len() int {
	return len(s)
}

// Clone возвращает независимую копию (nil превращается в пустое множество).
func (s SeenSet) Clone() SeenSet {
	out := make(SeenSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// Sorted возвращает заголовки в лексикографическом порядке, чтобы запись была детерминированной.
func (s SeenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
