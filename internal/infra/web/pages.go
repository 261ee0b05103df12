package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"

	"learning-portal/internal/domain/model"
	"learning-portal/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

const deferRetrySeconds = 1

// pageData is shared by every page; each template reads what it needs.
type pageData struct {
	Title      string
	Subject    *model.Subject
	Tier       string
	Error      string
	Loading    bool
	Offers     []usecase.OfferView
	Current    *model.SubscriptionRecord
	Activities []string
	RetryURL   string
	RetryAfter int
}

type pages struct {
	byName map[string]*template.Template
}

var (
	pagesOnce sync.Once
	pagesSet  *pages
)

func mustPages() *pages {
	pagesOnce.Do(func() {
		base := template.Must(template.ParseFS(templateFS, "templates/base.html"))
		p := &pages{byName: map[string]*template.Template{}}
		for _, name := range []string{"login", "subscription", "dashboard", "activities", "defer"} {
			t := template.Must(base.Clone())
			p.byName[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
		}
		pagesSet = p
	})
	return pagesSet
}

func (p *pages) render(w http.ResponseWriter, status int, name string, data pageData) error {
	t, ok := p.byName[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// renderDefer shows a waiting page that retries the same URL shortly.
func (p *pages) renderDefer(w http.ResponseWriter, r *http.Request) {
	retry := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		retry = r.URL.Path
	}
	w.Header().Set("Retry-After", strconv.Itoa(deferRetrySeconds))
	w.Header().Set("Cache-Control", "no-store")
	_ = p.render(w, http.StatusServiceUnavailable, "defer", pageData{
		Title:      "One moment",
		RetryURL:   retry,
		RetryAfter: deferRetrySeconds,
	})
}
