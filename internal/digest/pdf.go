package digest

import (
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"

	"github.com/maine/techbriefs/internal/news"
)

const (
	// NoSummary подставляется, когда у статьи нет описания.
	NoSummary = "No summary available."
	linkText  = "Read full article"
)

// PDFBuilder реализует app.Builder: раскладывает статьи в PDF формата Letter.
type PDFBuilder struct {
	store *Store
	title string
}

// NewPDFBuilder создаёт билдер. К заголовку title добавляется дата.
func NewPDFBuilder(store *Store, title string) *PDFBuilder {
	if title == "" {
		title = "Daily Tech News"
	}
	return &PDFBuilder{store: store, title: title}
}

// Build реализует app.Builder.
// Файл сначала пишется во временный, затем переименовывается: при ошибке
// дайджест за дату не появляется. Повторная сборка за ту же дату перезаписывает файл.
func (b *PDFBuilder) Build(date string, articles []news.Article) (string, error) {
	if err := os.MkdirAll(b.store.Dir(), 0755); err != nil {
		return "", fmt.Errorf("create digest directory: %w", err)
	}

	pdf := b.render(date, articles)
	if err := pdf.Error(); err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}

	tmp, err := os.CreateTemp(b.store.Dir(), Filename(date)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := pdf.Output(tmp); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := b.store.Path(date)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	return path, nil
}

func (b *PDFBuilder) render(date string, articles []news.Article) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "Letter", "")
	// встроенные шрифты в cp1252, UTF-8 приходится транслировать
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := fmt.Sprintf("%s - %s", b.title, date)
	pdf.SetTitle(header, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 10, tr(header), "", "C", false)
	pdf.Ln(6)

	if len(articles) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, "No new articles today.", "", "L", false)
		return pdf
	}

	for idx, article := range articles {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", idx+1, article.Title)), "", "L", false)
		pdf.Ln(1)

		summary := article.Summary
		if summary == "" {
			summary = NoSummary
		}
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5, tr("• "+summary), "", "L", false)
		pdf.Ln(1)

		if article.Link != "" {
			pdf.SetTextColor(26, 188, 156)
			pdf.SetFont("Helvetica", "U", 11)
			pdf.WriteLinkString(5, linkText, article.Link)
			pdf.Ln(5)
		}
		pdf.Ln(5)
	}
	pdf.SetTextColor(0, 0, 0)
	return pdf
}
