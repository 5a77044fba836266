package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/maine/techbriefs/internal/app"
	"github.com/maine/techbriefs/internal/archive"
	"github.com/maine/techbriefs/internal/digest"
)

//go:embed templates/index.html
var templatesFS embed.FS

// Refresher вызывается главной страницей перед отрисовкой.
type Refresher interface {
	Refresh(ctx context.Context, force bool) (app.Result, error)
	Today() string
}

// Digests даёт доступ к PDF на диске.
type Digests interface {
	Dates() ([]string, error)
	Exists(date string) bool
	Path(date string) string
	Resolve(name string) (string, error)
}

// Server обслуживает главную страницу и скачивание дайджестов.
type Server struct {
	refresher   Refresher
	digests     Digests
	archiveSize int
	title       string
	tmpl        *template.Template
	mux         *http.ServeMux
}

// NewServer создаёт обработчик. archiveSize задаёт, сколько прошлых дайджестов показывать.
func NewServer(refresher Refresher, digests Digests, archiveSize int, title string) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if title == "" {
		title = "TechBriefs"
	}

	s := &Server{
		refresher:   refresher,
		digests:     digests,
		archiveSize: archiveSize,
		title:       title,
		tmpl:        tmpl,
		mux:         http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /download", s.handleDownloadToday)
	s.mux.HandleFunc("GET /download/{file}", s.handleDownloadFile)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type indexData struct {
	Title          string
	TodayLabel     string
	TodayAvailable bool
	Articles       int
	FailedSources  int
	ArchiveSize    int
	Past           []archive.Entry
	Error          string
	Year           int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	// обновление общее для всех запросов, закрытая вкладка не должна его обрывать
	res, err := s.refresher.Refresh(context.WithoutCancel(r.Context()), false)
	today := s.refresher.Today()

	data := indexData{
		Title:          s.title,
		TodayLabel:     archive.Label(today),
		TodayAvailable: s.digests.Exists(today),
		ArchiveSize:    s.archiveSize,
		Year:           time.Now().Year(),
	}
	if err != nil {
		log.Printf("Refresh on index request failed: %v", err)
		status = http.StatusServiceUnavailable
		data.Error = "The news sources or the PDF renderer failed. Please try again later."
	} else if res.Rebuilt {
		data.Articles = res.Articles
		data.FailedSources = res.FailedSources
	}

	dates, derr := s.digests.Dates()
	if derr != nil {
		log.Printf("List digests failed: %v", derr)
	}
	data.Past = archive.Entries(archive.Recent(dates, today, s.archiveSize))

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.Printf("Render index failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDownloadToday(w http.ResponseWriter, r *http.Request) {
	today := s.refresher.Today()
	if !s.digests.Exists(today) {
		http.Error(w, "today's digest is not available yet", http.StatusNotFound)
		return
	}
	s.serveAttachment(w, r, s.digests.Path(today))
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.digests.Resolve(r.PathValue("file"))
	if err != nil {
		if errors.Is(err, digest.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.serveAttachment(w, r, path)
}

func (s *Server) serveAttachment(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
