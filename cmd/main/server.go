package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"

	"github.com/cloudbrowse/cloudbrowse/pkg/messages"
	"github.com/cloudbrowse/cloudbrowse/pkg/storage"
	"github.com/cloudbrowse/cloudbrowse/pkg/templating"
)

// Server wires the storage backend, the flash store, and the template
// manager into the browsing HTTP handlers.
type Server struct {
	config   *Config
	logger   *slog.Logger
	tm       *templating.TemplateManager
	flash    *messages.Store
	backend  storage.Backend
	router   chi.Router
	mediaDir string
}

// NewServer creates the server object and registers its routes.
func NewServer(config *Config, logger *slog.Logger, tm *templating.TemplateManager, flash *messages.Store, backend storage.Backend) *Server {
	s := &Server{
		config:   config,
		logger:   logger,
		tm:       tm,
		flash:    flash,
		backend:  backend,
		mediaDir: filepath.Join(config.Server.DataDir, "media"),
	}

	r := chi.NewRouter()
	r.Use(sessionMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/browser", http.StatusFound)
	})
	r.Get("/browser", s.handleContainers)
	r.Get("/browser/{container}", s.handleObjects)
	r.Get("/browser/{container}/*", s.handleObjects)
	r.Get("/download/{container}/*", s.handleDownload)

	// The reversal target of the cloud_browser_media route.
	mediaFs := http.StripPrefix("/cb_media/", http.FileServer(http.Dir(s.mediaDir)))
	r.Get("/cb_media/*", mediaFs.ServeHTTP)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// render pops the session's pending flash messages into the context and
// executes the named template. Template failures turn into a plain 500; there
// is nothing nicer to render them with.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, ctx pongo2.Context) {
	msgs, err := s.flash.Pop(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		s.logger.Error("Failed to pop flash messages", "error", err)
	}
	if msgs == nil {
		msgs = []messages.Message{}
	}
	ctx["messages"] = msgs

	var buf bytes.Buffer
	if err = s.tm.Execute(&buf, name, ctx); err != nil {
		s.logger.Error("Failed to execute template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// addFlash stashes a message for the session; a failing flash store should
// not take the page down, so errors are only logged.
func (s *Server) addFlash(r *http.Request, m messages.Message) {
	if err := s.flash.Add(r.Context(), sessionFrom(r.Context()), m); err != nil {
		s.logger.Error("Failed to store flash message", "error", err)
	}
}

func (s *Server) handleContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := s.backend.ListContainers(r.Context())
	if err != nil {
		s.logger.Error("Failed to list containers", "error", err)
		s.addFlash(r, messages.Message{
			Level: messages.LevelError, ExtraTags: "storage",
			Text: "The storage backend could not be reached.",
		})
		containers = nil
	}

	s.render(w, r, "containers.html", pongo2.Context{
		"containers": containers,
	})
}

func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	container := chi.URLParam(r, "container")
	prefix := chi.URLParam(r, "*")

	objects, err := s.backend.ListObjects(r.Context(), container, prefix)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidName):
		s.addFlash(r, messages.Message{
			Level: messages.LevelError, ExtraTags: "storage",
			Text: fmt.Sprintf("Container %q does not exist.", container),
		})
		http.Redirect(w, r, "/browser", http.StatusSeeOther)
		return
	case err != nil:
		s.logger.Error("Failed to list objects", "container", container, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if len(objects) == 0 {
		s.addFlash(r, messages.Message{
			Level: messages.LevelInfo, ExtraTags: "storage",
			Text: "This container holds no matching objects.",
		})
	}

	s.render(w, r, "objects.html", pongo2.Context{
		"container": container,
		"prefix":    prefix,
		"objects":   objects,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	container := chi.URLParam(r, "container")
	object := chi.URLParam(r, "*")

	rc, err := s.backend.Open(r.Context(), container, object)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidName):
		s.addFlash(r, messages.Message{
			Level: messages.LevelWarning, ExtraTags: "storage",
			Text: fmt.Sprintf("Object %q is not available.", object),
		})
		http.Redirect(w, r, "/browser/"+container, http.StatusSeeOther)
		return
	case err != nil:
		s.logger.Error("Failed to open object", "container", container, "object", object, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer func() {
		_ = rc.Close()
	}()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(object)))
	if _, err = io.Copy(w, rc); err != nil {
		s.logger.Warn("Object download interrupted", "container", container, "object", object, "error", err)
	}
}
