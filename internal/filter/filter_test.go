package filter

import (
	"testing"

	"github.com/maine/techbriefs/internal/config"
	"github.com/maine/techbriefs/internal/news"
)

func newTestFilter(maxArticles int, keywords ...string) *Filter {
	return New(config.Pipeline{Keywords: keywords, MaxArticles: maxArticles})
}

func titles(articles []news.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name        string
		maxArticles int
		keywords    []string
		entries     []news.RawEntry
		seen        news.SeenSet
		want        []string
		wantSkipped int
	}{
		{
			name:        "empty input",
			maxArticles: 25,
			keywords:    []string{"ai"},
			entries:     nil,
			want:        nil,
		},
		{
			name:        "keyword in title selects entry",
			maxArticles: 25,
			keywords:    config.DefaultKeywords,
			entries: []news.RawEntry{
				{Title: "AI breakthrough", Summary: "new model", Link: "a"},
				{Title: "Sports update", Summary: "match", Link: "b"},
			},
			want: []string{"AI breakthrough"},
		},
		{
			name:        "keyword in summary selects entry",
			maxArticles: 25,
			keywords:    []string{"python"},
			entries: []news.RawEntry{
				{Title: "Release notes", Summary: "Python 3.14 is out", Link: "a"},
			},
			want: []string{"Release notes"},
		},
		{
			name:        "seen titles are excluded",
			maxArticles: 25,
			keywords:    []string{"cloud"},
			entries: []news.RawEntry{
				{Title: "Cloud outage", Link: "a"},
				{Title: "Cloud pricing", Link: "b"},
			},
			seen: news.NewSeenSet("Cloud outage"),
			want: []string{"Cloud pricing"},
		},
		{
			name:        "cap keeps first qualifying entries in input order",
			maxArticles: 1,
			keywords:    []string{"ai"},
			entries: []news.RawEntry{
				{Title: "Weather", Link: "x"},
				{Title: "AI one", Link: "a"},
				{Title: "AI two", Link: "b"},
			},
			want: []string{"AI one"},
		},
		{
			name:        "entries without title are skipped",
			maxArticles: 25,
			keywords:    []string{"ai"},
			entries: []news.RawEntry{
				{Title: "   ", Summary: "ai everywhere", Link: "x"},
				{Title: "AI story", Link: "a"},
			},
			want:        []string{"AI story"},
			wantSkipped: 1,
		},
		{
			name:        "duplicate title within one batch is kept once",
			maxArticles: 25,
			keywords:    []string{"nvidia"},
			entries: []news.RawEntry{
				{Title: "Nvidia earnings", Link: "a", Source: "one"},
				{Title: "Nvidia earnings", Link: "b", Source: "two"},
			},
			want: []string{"Nvidia earnings"},
		},
		{
			name:        "title whitespace is trimmed before lookup",
			maxArticles: 25,
			keywords:    []string{"apple"},
			entries: []news.RawEntry{
				{Title: "  Apple event ", Link: "a"},
			},
			seen: news.NewSeenSet("Apple event"),
			want: nil,
		},
		{
			name:        "zero cap selects nothing",
			maxArticles: 0,
			keywords:    []string{"ai"},
			entries:     []news.RawEntry{{Title: "AI", Link: "a"}},
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFilter(tt.maxArticles, tt.keywords...)
			got := f.Apply(tt.entries, tt.seen)

			gotTitles := titles(got.Articles)
			if len(gotTitles) != len(tt.want) {
				t.Fatalf("Apply() titles = %v, want %v", gotTitles, tt.want)
			}
			for i := range tt.want {
				if gotTitles[i] != tt.want[i] {
					t.Errorf("Apply() titles[%d] = %q, want %q", i, gotTitles[i], tt.want[i])
				}
			}
			if got.Skipped != tt.wantSkipped {
				t.Errorf("Apply() Skipped = %d, want %d", got.Skipped, tt.wantSkipped)
			}

			// Seen ⊇ входного множества, и каждая выбранная статья в нём есть
			for title := range tt.seen {
				if !got.Seen.Has(title) {
					t.Errorf("Apply() dropped seen title %q", title)
				}
			}
			for _, a := range got.Articles {
				if !got.Seen.Has(a.Title) {
					t.Errorf("Apply() selected %q but did not mark it seen", a.Title)
				}
			}
			if got.Seen.Len() != tt.seen.Len()+len(got.Articles) {
				t.Errorf("Apply() Seen len = %d, want %d", got.Seen.Len(), tt.seen.Len()+len(got.Articles))
			}
		})
	}
}

func TestFilter_Apply_ScenarioSingleMatch(t *testing.T) {
	f := newTestFilter(25, config.DefaultKeywords...)
	entries := []news.RawEntry{
		{Title: "AI breakthrough", Summary: "new model", Link: "a"},
		{Title: "Sports update", Summary: "match", Link: "b"},
	}

	got := f.Apply(entries, news.NewSeenSet())
	if len(got.Articles) != 1 {
		t.Fatalf("Apply() len = %d, want 1", len(got.Articles))
	}
	want := news.Article{Title: "AI breakthrough", Summary: "new model", Link: "a"}
	if got.Articles[0] != want {
		t.Errorf("Apply() article = %+v, want %+v", got.Articles[0], want)
	}
	if got.Seen.Len() != 1 || !got.Seen.Has("AI breakthrough") {
		t.Errorf("Apply() Seen = %v, want [AI breakthrough]", got.Seen.Sorted())
	}
}

func TestFilter_Apply_SecondRunSelectsNothing(t *testing.T) {
	f := newTestFilter(25, config.DefaultKeywords...)
	entries := []news.RawEntry{
		{Title: "AI breakthrough", Summary: "new model", Link: "a"},
		{Title: "Sports update", Summary: "match", Link: "b"},
	}

	first := f.Apply(entries, news.NewSeenSet())
	if len(first.Articles) != 1 {
		t.Fatalf("first Apply() len = %d, want 1", len(first.Articles))
	}

	second := f.Apply(entries, first.Seen)
	if len(second.Articles) != 0 {
		t.Errorf("second Apply() titles = %v, want none", titles(second.Articles))
	}
	if second.Seen.Len() != first.Seen.Len() {
		t.Errorf("second Apply() Seen len = %d, want %d", second.Seen.Len(), first.Seen.Len())
	}
}

func TestFilter_Apply_CapDoesNotMarkRemaining(t *testing.T) {
	f := newTestFilter(1, "ai")
	entries := []news.RawEntry{
		{Title: "AI one", Link: "a"},
		{Title: "AI two", Link: "b"},
	}

	got := f.Apply(entries, news.NewSeenSet())
	if got.Seen.Has("AI two") {
		t.Error("entry after the cap must not be marked seen")
	}
}

func TestFilter_Apply_DoesNotMutateInput(t *testing.T) {
	f := newTestFilter(25, "ai")
	seen := news.NewSeenSet("old")
	_ = f.Apply([]news.RawEntry{{Title: "AI news", Link: "a"}}, seen)
	if seen.Len() != 1 || seen.Has("AI news") {
		t.Errorf("Apply() mutated input seen set: %v", seen.Sorted())
	}
}

// Совпадение по подстроке, а не по словам: "ai" находит "again" и "Said".
// Поведение зафиксировано намеренно; смена на границы слов потребует отдельного решения.
func TestFilter_SubstringSemantics(t *testing.T) {
	f := newTestFilter(25, "ai")
	tests := []struct {
		title string
		want  bool
	}{
		{"AI breakthrough", true},
		{"Prices rise again", true},
		{"Minister said nothing", true},
		{"Rain in Spain", true},
		{"Football results", false},
		{"Stock market", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := f.Apply([]news.RawEntry{{Title: tt.title, Link: "x"}}, nil)
			if (len(got.Articles) == 1) != tt.want {
				t.Errorf("Apply(%q) selected = %v, want %v", tt.title, len(got.Articles) == 1, tt.want)
			}
		})
	}
}

func TestNew_NormalizesKeywords(t *testing.T) {
	f := newTestFilter(5, "  OpenAI ", "", "LLM")
	if len(f.keywords) != 2 || f.keywords[0] != "openai" || f.keywords[1] != "llm" {
		t.Errorf("keywords = %v, want [openai llm]", f.keywords)
	}
}
