package calls

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"auditline.org/internal/ids"
)

// Page is one page of the filtered call list.
type Page struct {
	Items    []Call `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// Service defines call operations used by the HTTP layer.
type Service interface {
	List(ctx context.Context, f Filters) (Page, error)
	Get(ctx context.Context, id string) (Call, error)
	Create(ctx context.Context, c Call) (Call, error)
	AttachAudio(ctx context.Context, id, audioURL string) (Call, error)
}

// InMemory implements Service with in-process concurrency safety. Used by
// the mock API and as the reference implementation for the Postgres store.
type InMemory struct {
	mu    sync.RWMutex
	items map[string]*Call
}

// NewInMemory creates an empty call store.
func NewInMemory() *InMemory {
	return &InMemory{items: make(map[string]*Call)}
}

var _ Service = (*InMemory)(nil)

func (s *InMemory) Create(ctx context.Context, c Call) (Call, error) {
	if strings.TrimSpace(c.AgentName) == "" {
		return Call{}, fmt.Errorf("%w: agent name is required", ErrInvalidInput)
	}
	if c.DurationSec < 0 {
		return Call{}, fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = ids.New()
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	stored := c
	s.items[c.ID] = &stored
	return c, nil
}

func (s *InMemory) Get(ctx context.Context, id string) (Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return cloneCall(c), nil
}

func (s *InMemory) AttachAudio(ctx context.Context, id, audioURL string) (Call, error) {
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return Call{}, fmt.Errorf("%w: audio url is required", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	c.AudioURL = audioURL
	return cloneCall(c), nil
}

func (s *InMemory) List(ctx context.Context, f Filters) (Page, error) {
	f = f.Normalize()

	s.mu.RLock()
	matched := make([]Call, 0, len(s.items))
	for _, c := range s.items {
		if matchesSearch(c, f.Search) {
			matched = append(matched, cloneCall(c))
		}
	}
	s.mu.RUnlock()

	sortCalls(matched, f.SortBy, f.SortOrder)

	total := len(matched)
	start := (f.Page - 1) * f.PageSize
	if start >= total {
		return Page{Items: []Call{}, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return Page{Items: matched[start:end], Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func matchesSearch(c *Call, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(c.AgentName), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Customer), needle) {
		return true
	}
	for _, turn := range c.Transcript {
		if strings.Contains(strings.ToLower(turn.Text), needle) {
			return true
		}
	}
	return false
}

func sortCalls(items []Call, sortBy, sortOrder string) {
	less := func(a, b Call) bool { return a.Date.Before(b.Date) }
	switch sortBy {
	case "duration":
		less = func(a, b Call) bool { return a.DurationSec < b.DurationSec }
	case "agent":
		less = func(a, b Call) bool { return a.AgentName < b.AgentName }
	case "score":
		less = func(a, b Call) bool { return a.Score < b.Score }
	case "sentiment":
		less = func(a, b Call) bool { return a.Sentiment < b.Sentiment }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if sortOrder == SortDesc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func cloneCall(c *Call) Call {
	out := *c
	if c.Transcript != nil {
		out.Transcript = make([]TranscriptTurn, len(c.Transcript))
		copy(out.Transcript, c.Transcript)
	}
	if c.Scorecard != nil {
		out.Scorecard = make([]ScorecardEntry, len(c.Scorecard))
		copy(out.Scorecard, c.Scorecard)
	}
	return out
}
