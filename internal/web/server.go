// Package web serves the review UI: upload, column mapping, paginated review
// with MATCH toggles, and CSV export.
package web

import (
	"context"
	"crypto/rand"
	"fmt"
	"hash/fnv"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"listingmatch/internal/config"
	"listingmatch/internal/lookup"
	"listingmatch/internal/model"
	"listingmatch/internal/review"
	"listingmatch/internal/session"
)

const (
	cookieName     = "matcher_session"
	maxUploadBytes = 32 << 20
	lockStripes    = 64
)

// Options configures a Server.
type Options struct {
	Addr   string
	Store  session.Store
	Lookup lookup.Lookup
	// Gate guards every route but /login and /health. A nil or disabled gate
	// lets everyone in.
	Gate *config.PasswordGate
	// Secret signs session cookies. A random one is generated when empty,
	// which logs everyone out on restart.
	Secret             string
	SessionTTL         time.Duration
	DefaultMarketplace string
}

type Server struct {
	httpServer *http.Server
	store      session.Store
	lookup     lookup.Lookup
	gate       *config.PasswordGate
	tokens     *TokenService
	defaults   model.Settings
	ttl        time.Duration
	pages      *templates
	locks      [lockStripes]sync.Mutex
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if opts.Lookup == nil {
		opts.Lookup = lookup.Disabled{Reason: "no image lookup configured"}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}

	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		log.Println("[Web] SESSION_SECRET not set, using a random secret")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		store:    opts.Store,
		lookup:   opts.Lookup,
		gate:     opts.Gate,
		tokens:   NewTokenService(secret, opts.SessionTTL),
		defaults: review.DefaultSettings(opts.DefaultMarketplace),
		ttl:      opts.SessionTTL,
		pages:    pages,
	}

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second, // page views wait on image lookups
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	protected := func(h http.HandlerFunc) http.Handler {
		return s.withSession(s.requireAuth(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /login", s.withSession(http.HandlerFunc(s.handleLoginForm)))
	mux.Handle("POST /login", s.withSession(http.HandlerFunc(s.handleLogin)))

	mux.Handle("GET /{$}", protected(s.handleIndex))
	mux.Handle("POST /upload", protected(s.handleUpload))
	mux.Handle("POST /settings", protected(s.handleSettings))
	mux.Handle("POST /match", protected(s.handleMatch))
	mux.Handle("POST /reset", protected(s.handleReset))
	mux.Handle("GET /export", protected(s.handleExport))

	return s.withLogging(mux)
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Web] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Println("[Web] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("[Web] stopped")
	return nil
}

func (s *Server) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}

// update applies fn to the stored session under the session's lock and
// saves the result. Nothing is saved when fn fails.
func (s *Server) update(ctx context.Context, id string, fn func(*session.Session) error) (*session.Session, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}
