// ABOUTME: HTTP handlers for the browser UI and the Markdown help pages
// ABOUTME: Renders templates from the embedded filesystem

package webui

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/docex-gateway/internal/api"
	"github.com/2389/docex-gateway/internal/console"
)

// DefaultTitle is used when Config.Title is empty.
const DefaultTitle = "Document Exchange"

// Config holds UI settings.
type Config struct {
	Title  string
	Mock   bool
	Logger *slog.Logger
}

// UI serves the browser front end.
type UI struct {
	title     string
	mock      bool
	logger    *slog.Logger
	index     *template.Template
	help      *template.Template
	markdown  goldmark.Markdown
	staticSrv http.Handler
}

type modeOption struct {
	Value        string
	ButtonLabel  string
	LoadingLabel string
	Endpoint     string
	ContentField string
}

type indexData struct {
	Title string
	Mock  bool
	Modes []modeOption
}

type helpTopic struct {
	Slug   string
	Title  string
	Active bool
}

type helpData struct {
	Title   string
	Topics  []helpTopic
	Content template.HTML
}

// New parses the embedded templates.
func New(cfg Config) (*UI, error) {
	title := cfg.Title
	if title == "" {
		title = DefaultTitle
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	index, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	help, err := template.ParseFS(templateFS, "templates/help.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	return &UI{
		title:     title,
		mock:      cfg.Mock,
		logger:    logger,
		index:     index,
		help:      help,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		staticSrv: http.StripPrefix("/static/", http.FileServer(http.FS(static))),
	}, nil
}

// RegisterRoutes registers the UI routes on mux.
func (u *UI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", u.handleIndex)
	mux.Handle("/static/", u.staticSrv)
	mux.HandleFunc("/help", u.handleHelp)
}

func (u *UI) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	data := indexData{Title: u.title, Mock: u.mock}
	for _, m := range api.Modes {
		spec := console.SpecFor(m)
		data.Modes = append(data.Modes, modeOption{
			Value:        string(m),
			ButtonLabel:  spec.ButtonLabel,
			LoadingLabel: spec.LoadingLabel,
			Endpoint:     spec.Endpoint,
			ContentField: spec.ContentField,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := u.index.Execute(w, data); err != nil {
		u.logger.Error("failed to render index", "error", err)
	}
}

// topicOrder lists help topics in reading order; unknown topics sort last.
var topicOrder = map[string]int{
	"getting-started": 1,
	"modes":           2,
	"access-codes":    3,
	"troubleshooting": 4,
}

func (u *UI) handleHelp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	selected := r.URL.Query().Get("topic")
	if selected == "" {
		selected = "getting-started"
	}

	topics, err := listTopics(selected)
	if err != nil {
		u.logger.Error("failed to list help topics", "error", err)
		http.Error(w, "help unavailable", http.StatusInternalServerError)
		return
	}

	// path.Base keeps the lookup inside docs/help
	md, err := helpDocsFS.ReadFile(path.Join("docs/help", path.Base(selected)+".md"))
	status := http.StatusOK
	if err != nil {
		md = []byte("# Not Found\n\nThis help topic could not be found.")
		status = http.StatusNotFound
	}

	var htmlBuf bytes.Buffer
	if err := u.markdown.Convert(md, &htmlBuf); err != nil {
		u.logger.Error("failed to convert markdown", "error", err)
		htmlBuf.Reset()
		htmlBuf.WriteString("<p>Failed to render help content.</p>")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := u.help.Execute(w, helpData{
		Title:   u.title,
		Topics:  topics,
		Content: template.HTML(htmlBuf.String()),
	}); err != nil {
		u.logger.Error("failed to render help", "error", err)
	}
}

func listTopics(selected string) ([]helpTopic, error) {
	entries, err := fs.ReadDir(helpDocsFS, "docs/help")
	if err != nil {
		return nil, err
	}

	var topics []helpTopic
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		slug := strings.TrimSuffix(entry.Name(), ".md")
		topics = append(topics, helpTopic{Slug: slug, Title: formatHelpTitle(slug), Active: slug == selected})
	}

	sort.Slice(topics, func(i, j int) bool {
		oi, ok := topicOrder[topics[i].Slug]
		if !ok {
			oi = 100
		}
		oj, ok := topicOrder[topics[j].Slug]
		if !ok {
			oj = 100
		}
		if oi != oj {
			return oi < oj
		}
		return topics[i].Slug < topics[j].Slug
	})
	return topics, nil
}

// formatHelpTitle converts a slug to a display title
func formatHelpTitle(slug string) string {
	words := strings.Split(slug, "-")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
