// Package session keeps the per-operator review state between requests.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"listingmatch/internal/model"
	"listingmatch/internal/review"
	"listingmatch/internal/table"
)

var ErrNotFound = errors.New("session not found")

// Session is one operator's review: the loaded table, its mapping, display
// settings and MATCH decisions.
type Session struct {
	ID            string               `json:"id"`
	Authenticated bool                 `json:"authenticated"`
	FileName      string               `json:"file_name,omitempty"`
	Table         *table.Table         `json:"table,omitempty"`
	Mapping       *model.ColumnMapping `json:"mapping,omitempty"`
	Settings      model.Settings       `json:"settings"`
	Page          int                  `json:"page"`
	Matches       *review.MatchState   `json:"matches"`
	// Replaced is set when a table was uploaded over one that already had
	// MATCH decisions. Those decisions are kept and keyed by row index.
	Replaced  bool      `json:"replaced,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(settings model.Settings) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Settings:  settings,
		Page:      1,
		Matches:   review.NewMatchState(),
		UpdatedAt: time.Now(),
	}
}

// Load replaces the table. The mapping is cleared and must be chosen again;
// MATCH decisions are not cleared.
func (s *Session) Load(fileName string, t *table.Table) {
	s.Replaced = s.Matches.Len() > 0
	s.FileName = fileName
	s.Table = t
	s.Mapping = nil
	s.Page = 1
}

// Renew returns a copy of s under a fresh ID, for when the session's
// privileges change.
func (s *Session) Renew() *Session {
	next := *s
	next.ID = uuid.NewString()
	next.UpdatedAt = time.Now()
	return &next
}

// Ready reports whether the session has a table and a mapping to review.
func (s *Session) Ready() bool {
	return s.Table != nil && s.Mapping != nil
}

// Pager returns the pager for the loaded table and page size.
func (s *Session) Pager() review.Pager {
	return review.Pager{Rows: s.Table.Len(), Size: s.Settings.PageSize}
}

// Store persists sessions by ID.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
