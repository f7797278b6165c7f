package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"listingmatch/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey).(*session.Session)
	return sess
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[Web] %s %s %d in %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// withSession loads the session named by the cookie, starting a new one when
// the cookie is missing, invalid or refers to an expired session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if c, err := r.Cookie(cookieName); err == nil {
			if claims, err := s.tokens.Validate(c.Value); err == nil {
				sess, err := s.store.Get(ctx, claims.SessionID)
				switch {
				case err == nil:
					next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey, sess)))
					return
				case !errors.Is(err, session.ErrNotFound):
					log.Printf("[Session] load %s: %v", claims.SessionID, err)
					http.Error(w, "session unavailable", http.StatusInternalServerError)
					return
				}
			}
		}

		sess := session.New(s.defaults)
		sess.Authenticated = !s.gate.Enabled()
		if err := s.store.Save(ctx, sess); err != nil {
			log.Printf("[Session] save %s: %v", sess.ID, err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		if err := s.setCookie(w, sess.ID); err != nil {
			log.Printf("[Session] cookie: %v", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey, sess)))
	})
}

func (s *Server) setCookie(w http.ResponseWriter, sessionID string) error {
	token, err := s.tokens.Generate(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// requireAuth sends unauthenticated page views to /login and rejects
// everything else with 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if sess != nil && (sess.Authenticated || !s.gate.Enabled()) {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodGet {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
