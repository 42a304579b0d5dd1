// Package web serves a read-only view of a shared packing list and streams
// updates to open pages over Datastar SSE.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"packlist/internal/model"
	"packlist/internal/publish"
	"packlist/internal/share"
	"packlist/internal/store"

	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Addr     string
	Store    store.Store
	Registry share.Registry
	Logger   *zap.Logger

	// Now defaults to time.Now.
	Now func() time.Time
	// KeepAlive is the idle interval between empty signal patches. Zero means 25s.
	KeepAlive time.Duration
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	hub  *resourceHub
	log  *zap.Logger

	mu     sync.RWMutex
	state  store.State
	loaded bool
}

type pageVM struct {
	Title     string
	Token     string
	Trip      string
	StreamURL string
	List      template.HTML
}

type missingVM struct {
	Title string
}

const pageTemplates = `
{{define "page"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; max-width: 40rem; margin: 2rem auto; padding: 0 1rem; }
ul { list-style: none; padding-left: 0.5rem; }
.muted { color: #777; }
</style>
</head>
<body>
<main id="list" data-init="@get('{{.StreamURL}}')">{{template "list" .}}</main>
</body>
</html>{{end}}
{{define "list"}}{{.List}}<p class="muted">Read-only view. Updates live.</p>{{end}}
{{define "missing"}}<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body><main id="list"><h1>{{.Title}}</h1><p>This list is not shared, or the link has expired.</p></main></body>
</html>{{end}}
`

const missingTitle = "List not found or expired"

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if strings.TrimSpace(cfg.Store.Dir) == "" {
		return nil, errors.New("web: store dir is empty")
	}
	if cfg.Registry == nil {
		return nil, errors.New("web: share registry is nil")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 25 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tmpl, err := template.New("base").Parse(pageTemplates)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl, hub: newResourceHub(), log: log}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /s/{token}", s.handleShare)
	mux.HandleFunc("GET /s/{token}/events", s.handleShareEvents)
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("share server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Publish replaces the cached list and wakes every open stream.
func (s *Server) Publish(st store.State) {
	s.mu.Lock()
	s.state = st
	s.loaded = true
	s.mu.Unlock()
	s.hub.broadcast()
}

func (s *Server) currentState(ctx context.Context) (store.State, error) {
	s.mu.RLock()
	st, ok := s.state, s.loaded
	s.mu.RUnlock()
	if ok {
		return st, nil
	}
	return s.cfg.Store.Load(ctx)
}

// resolve reports whether token currently grants access to this server's list.
func (s *Server) resolve(ctx context.Context, token string) (model.Share, store.State, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Share{}, store.State{}, false, nil
	}
	sh, err := s.cfg.Registry.Get(ctx, token)
	if errors.Is(err, share.ErrNotFound) {
		return model.Share{}, store.State{}, false, nil
	}
	if err != nil {
		return model.Share{}, store.State{}, false, err
	}
	if sh.Workspace != s.cfg.Store.Dir || sh.Expired(s.cfg.Now()) {
		return model.Share{}, store.State{}, false, nil
	}
	st, err := s.currentState(ctx)
	if err != nil {
		return model.Share{}, store.State{}, false, err
	}
	// A revoked token can linger in an external registry until its TTL.
	if st.ShareToken != token {
		return model.Share{}, store.State{}, false, nil
	}
	return sh, st, true, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	_, st, ok, err := s.resolve(r.Context(), token)
	if err != nil {
		s.log.Warn("share lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		s.writeHTMLTemplate(w, http.StatusNotFound, "missing", missingVM{Title: missingTitle})
		return
	}
	trip := strings.TrimSpace(r.URL.Query().Get("trip"))
	vm := s.pageVM(st, token, trip)
	s.writeHTMLTemplate(w, http.StatusOK, "page", vm)
}

func (s *Server) handleShareEvents(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	trip := strings.TrimSpace(r.URL.Query().Get("trip"))

	ch, cancel := s.hub.subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)
	keepAlive := time.NewTicker(s.cfg.KeepAlive)
	defer keepAlive.Stop()

	// patch sends the current list; false means the stream should end.
	patch := func() bool {
		_, st, ok, err := s.resolve(sse.Context(), token)
		if err != nil {
			_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
			return true
		}
		if !ok {
			html, _ := s.renderTemplate("missing", missingVM{Title: missingTitle})
			_ = sse.PatchElements(innerMain(html), datastar.WithSelector("#list"), datastar.WithMode(datastar.ElementPatchModeInner))
			return false
		}
		html, err := s.renderTemplate("list", s.pageVM(st, token, trip))
		if err != nil {
			_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
			return true
		}
		_ = sse.PatchElements(html, datastar.WithSelector("#list"), datastar.WithMode(datastar.ElementPatchModeInner))
		return true
	}

	if !patch() {
		return
	}
	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			if !patch() {
				return
			}
		}
	}
}

func (s *Server) pageVM(st store.State, token, trip string) pageVM {
	md := publish.RenderListMarkdown(st.Items, st.Settings.Categories, publish.RenderOptions{
		Title:      "Shared packing list",
		Trip:       trip,
		SortByName: true,
	})
	stream := "/s/" + token + "/events"
	if trip != "" {
		stream += "?trip=" + url.QueryEscape(trip)
	}
	return pageVM{
		Title:     "Shared packing list",
		Token:     token,
		Trip:      trip,
		StreamURL: stream,
		List:      renderMarkdownHTML(md),
	}
}

// innerMain strips the document around the missing page so it can be
// patched into an open page.
func innerMain(html string) string {
	const openTag, closeTag = `<main id="list">`, `</main>`
	i := strings.Index(html, openTag)
	j := strings.LastIndex(html, closeTag)
	if i < 0 || j < i {
		return html
	}
	return html[i+len(openTag) : j]
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, status int, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, html)
}

type resourceHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newResourceHub() *resourceHub {
	return &resourceHub{subs: map[chan struct{}]struct{}{}}
}

func (h *resourceHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *resourceHub) broadcast() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}
