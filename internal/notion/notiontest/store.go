// Package notiontest provides an in-memory datastore for tests.
package notiontest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kylejryan/survey-sync/internal/notion"
)

// Store is an in-memory stand-in for the Notion client. It understands the
// title-equals and relation-contains filters.
type Store struct {
	mu      sync.Mutex
	dbs     map[string][]notion.Page
	nextID  int
	queries int

	// QueryErr, when set, is consulted before every query.
	QueryErr func(databaseID string) error
	// CreateErr, when set, is consulted before every create.
	CreateErr func(databaseID string, props notion.Properties) error
}

// New returns an empty Store.
func New() *Store {
	return &Store{dbs: map[string][]notion.Page{}}
}

// Seed adds a page with the given title property and returns its id.
func (s *Store) Seed(databaseID, titleProp, title string) string {
	id, err := s.CreatePage(context.Background(), databaseID, notion.Properties{titleProp: notion.Title(title)})
	if err != nil {
		panic(err)
	}
	return id
}

// Pages returns a copy of the pages of databaseID in creation order.
func (s *Store) Pages(databaseID string) []notion.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notion.Page(nil), s.dbs[databaseID]...)
}

// Queries reports how many queries were served.
func (s *Store) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

// Query implements the client method.
func (s *Store) Query(_ context.Context, databaseID string, filter notion.Filter) ([]notion.Page, error) {
	if s.QueryErr != nil {
		if err := s.QueryErr(databaseID); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	var out []notion.Page
	for _, p := range s.dbs[databaseID] {
		if matches(p, filter) {
			out = append(out, p)
		}
	}
	return out, nil
}

// CreatePage implements the client method.
func (s *Store) CreatePage(_ context.Context, databaseID string, props notion.Properties) (string, error) {
	if s.CreateErr != nil {
		if err := s.CreateErr(databaseID, props); err != nil {
			return "", err
		}
	}
	raw := make(map[string]json.RawMessage, len(props))
	for k, v := range props {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		raw[k] = b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("%s-page-%03d", databaseID, s.nextID)
	s.dbs[databaseID] = append(s.dbs[databaseID], notion.Page{ID: id, Properties: raw})
	return id, nil
}

func matches(p notion.Page, filter notion.Filter) bool {
	if filter == nil {
		return true
	}
	prop, _ := filter["property"].(string)
	if cond, ok := filter["title"].(map[string]any); ok {
		want, _ := cond["equals"].(string)
		return p.PlainText(prop) == want
	}
	if cond, ok := filter["relation"].(map[string]any); ok {
		want, _ := cond["contains"].(string)
		for _, id := range strings.Split(p.PlainText(prop), ",") {
			if id == want {
				return true
			}
		}
		return false
	}
	return false
}
