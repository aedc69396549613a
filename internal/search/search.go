package search

import (
	"context"
	"time"

	"github.com/jasperwreed/pixel-chat/internal/models"
	"github.com/jasperwreed/pixel-chat/internal/storage"
)

// Filters narrows full-text results after the query ran.
type Filters struct {
	SessionID string    // only conversations linked to this backend session
	Since     time.Time // only conversations updated at or after this time
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.SessionID == "" && f.Since.IsZero()
}

type Searcher struct {
	store *storage.SQLiteStore
}

func NewSearcher(store *storage.SQLiteStore) *Searcher {
	return &Searcher{store: store}
}

func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	return s.store.SearchMessages(ctx, query, limit)
}

func (s *Searcher) SearchWithFilters(ctx context.Context, query string, limit int, filters Filters) ([]models.SearchResult, error) {
	results, err := s.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if filters.SessionID != "" {
		filtered := []models.SearchResult{}
		for _, r := range results {
			if r.Conversation.ServerSessionID == filters.SessionID {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	if !filters.Since.IsZero() {
		filtered := []models.SearchResult{}
		for _, r := range results {
			if !r.Conversation.UpdatedAt.Before(filters.Since) {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	return results, nil
}
