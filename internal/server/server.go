package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/indextree/internal/database"
	"github.com/nao1215/indextree/internal/pipeline"
	"github.com/nao1215/indextree/internal/render"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

//go:embed pages/*.html
var pagesFS embed.FS

// Store reads and lists artifacts.
type Store interface {
	GetArtifact(ctx context.Context, name string) (*database.Artifact, error)
	ListArtifacts(ctx context.Context) ([]database.Artifact, error)
}

// Factory builds the pipeline that crawls rootURL into the artifact name.
// The pipeline is expected to store the document where Store can find it.
type Factory func(rootURL, name string) (*pipeline.Pipeline, error)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Service holds the front-end's collaborators.
type Service struct {
	factory Factory
	store   Store
	format  render.Format

	// flights collapses concurrent crawls of the same root URL.
	flights singleflight.Group

	pages           *template.Template
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithFormat sets the output format, which decides the artifact extension.
func WithFormat(f render.Format) Option {
	return func(s *Service) {
		s.format = f
	}
}

// WithShutdownTimeout sets how long ListenAndServe waits for requests in
// flight when its context ends.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.shutdownTimeout = d
	}
}

// New creates a Service.
func New(factory Factory, store Store, opts ...Option) *Service {
	s := &Service{
		factory:         factory,
		store:           store,
		format:          render.FormatTemplate,
		shutdownTimeout: DefaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.pages = template.Must(template.New("pages").Funcs(template.FuncMap{
		"pathEscape": url.PathEscape,
	}).ParseFS(pagesFS, "pages/*.html"))

	return s
}

// Handler returns the HTTP handler for all routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /crawl", s.handleCrawl)
	mux.HandleFunc("GET /trees/{$}", s.handleList)
	mux.HandleFunc("GET /trees/{name}", s.handleArtifact)
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Service) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, "index.html", nil); err != nil {
		s.logger.Error("failed to render index page", "error", err)
	}
}

// crawlResult is shared by requests collapsed into one crawl.
type crawlResult struct {
	name string
	job  *pipeline.Job
}

func (s *Service) handleCrawl(w http.ResponseWriter, r *http.Request) {
	rootURL := strings.TrimSpace(r.FormValue("url"))
	if err := validateRoot(rootURL); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name, err := ArtifactName(rootURL, s.format.Extension())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The crawl outlives a disconnected client so that requests sharing
	// it still get a result.
	ctx := context.WithoutCancel(r.Context())

	v, err, shared := s.flights.Do(rootURL, func() (any, error) {
		p, err := s.factory(rootURL, name)
		if err != nil {
			return nil, err
		}
		job := pipeline.NewJob(rootURL, name, s.format)
		if err := p.Execute(ctx, job); err != nil {
			return nil, err
		}
		return &crawlResult{name: name, job: job}, nil
	})
	if err != nil {
		s.logger.Warn("crawl failed", "root", rootURL, "error", err)
		http.Error(w, "crawl failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	res, ok := v.(*crawlResult)
	if !ok {
		http.Error(w, "unexpected crawl result", http.StatusInternalServerError)
		return
	}

	s.logger.Info("crawl served",
		"root", rootURL,
		"artifact", res.name,
		"nodes", res.job.Stats.Total(),
		"shared", shared,
	)
	http.Redirect(w, r, "/trees/"+url.PathEscape(res.name), http.StatusSeeOther)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.store.ListArtifacts(r.Context())
	if err != nil {
		s.logger.Error("failed to list artifacts", "error", err)
		http.Error(w, "failed to list artifacts", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		writeJSONList(w, artifacts)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, "list.html", artifacts); err != nil {
		s.logger.Error("failed to render artifact list", "error", err)
	}
}

// artifactSummary is the JSON form of a listed artifact.
type artifactSummary struct {
	Name    string    `json:"name"`
	RootURL string    `json:"root_url"`
	Format  string    `json:"format"`
	Nodes   int       `json:"nodes"`
	Digest  string    `json:"digest"`
	Created time.Time `json:"created"`
}

func writeJSONList(w http.ResponseWriter, artifacts []database.Artifact) {
	list := make([]artifactSummary, 0, len(artifacts))
	for _, a := range artifacts {
		list = append(list, artifactSummary{
			Name:    a.Name,
			RootURL: a.RootURL,
			Format:  a.Format,
			Nodes:   a.Nodes,
			Digest:  a.Digest,
			Created: a.Created,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list) //nolint:errcheck,errchkjson // the client may have gone away
}

func (s *Service) handleArtifact(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	a, err := s.store.GetArtifact(r.Context(), name)
	if err != nil {
		s.logger.Error("failed to load artifact", "name", name, "error", err)
		http.Error(w, "failed to load artifact", http.StatusInternalServerError)
		return
	}
	if a == nil {
		http.NotFound(w, r)
		return
	}

	etag := strconv.Quote(a.Digest)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Document)))
	_, _ = w.Write(a.Document)
}

// validateRoot accepts absolute http and https URLs.
func validateRoot(rootURL string) error {
	if rootURL == "" {
		return errors.New("missing url")
	}
	u, err := url.Parse(rootURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url has no host")
	}
	return nil
}
