package calls

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedCalls(t *testing.T) *InMemory {
	t.Helper()
	s := NewInMemory()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seed := []Call{
		{AgentName: "Dana Reyes", Customer: "+1 555 0101", Date: base, DurationSec: 320, Score: 88, Sentiment: SentimentPositive},
		{AgentName: "Sam Okafor", Customer: "+1 555 0102", Date: base.Add(1 * time.Hour), DurationSec: 95, Score: 61, Sentiment: SentimentNegative,
			Transcript: []TranscriptTurn{{Index: 0, Speaker: "customer", Text: "I want a refund immediately"}}},
		{AgentName: "Ana Lima", Customer: "+1 555 0103", Date: base.Add(2 * time.Hour), DurationSec: 410, Score: 75, Sentiment: SentimentNeutral},
	}
	for _, c := range seed {
		if _, err := s.Create(context.Background(), c); err != nil {
			t.Fatalf("seed create: %v", err)
		}
	}
	return s
}

func TestCreateValidatesInput(t *testing.T) {
	s := NewInMemory()
	if _, err := s.Create(context.Background(), Call{AgentName: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Create(context.Background(), Call{AgentName: "Dana", DurationSec: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	created, err := s.Create(context.Background(), Call{AgentName: "Dana"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.Date.IsZero() {
		t.Fatalf("expected assigned id and date: %+v", created)
	}
}

func TestListDefaultOrderIsDateDesc(t *testing.T) {
	s := seedCalls(t)
	page, err := s.List(context.Background(), DefaultFilters())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 3 {
		t.Fatalf("unexpected page: total=%d len=%d", page.Total, len(page.Items))
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i].Date.After(page.Items[i-1].Date) {
			t.Fatalf("items not in date desc order: %v before %v", page.Items[i-1].Date, page.Items[i].Date)
		}
	}
}

func TestListSortVariants(t *testing.T) {
	s := seedCalls(t)

	page, err := s.List(context.Background(), Filters{Page: 1, PageSize: 10, SortBy: "duration", SortOrder: SortAsc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Items[0].DurationSec != 95 || page.Items[2].DurationSec != 410 {
		t.Fatalf("duration asc order broken: %+v", page.Items)
	}

	page, err = s.List(context.Background(), Filters{Page: 1, PageSize: 10, SortBy: "agent", SortOrder: SortAsc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Items[0].AgentName != "Ana Lima" {
		t.Fatalf("agent asc order broken: %+v", page.Items[0])
	}

	page, err = s.List(context.Background(), Filters{Page: 1, PageSize: 10, SortBy: "score", SortOrder: SortDesc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Items[0].Score != 88 {
		t.Fatalf("score desc order broken: %+v", page.Items[0])
	}
}

func TestListPaging(t *testing.T) {
	s := seedCalls(t)

	page, err := s.List(context.Background(), Filters{Page: 2, PageSize: 2, SortBy: "date", SortOrder: SortDesc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 1 {
		t.Fatalf("unexpected second page: total=%d len=%d", page.Total, len(page.Items))
	}

	page, err = s.List(context.Background(), Filters{Page: 9, PageSize: 10, SortBy: "date", SortOrder: SortDesc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 0 {
		t.Fatalf("expected empty overflow page, got %+v", page)
	}
}

func TestListSearch(t *testing.T) {
	s := seedCalls(t)

	page, err := s.List(context.Background(), Filters{Page: 1, PageSize: 10, SortBy: "date", SortOrder: SortDesc, Search: "okafor"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Items[0].AgentName != "Sam Okafor" {
		t.Fatalf("agent search failed: %+v", page)
	}

	page, err = s.List(context.Background(), Filters{Page: 1, PageSize: 10, SortBy: "date", SortOrder: SortDesc, Search: "refund"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("transcript search failed: %+v", page)
	}

	page, err = s.List(context.Background(), Filters{Page: 1, PageSize: 10, SortBy: "date", SortOrder: SortDesc, Search: "no-such-text"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 0 || len(page.Items) != 0 {
		t.Fatalf("expected no matches, got %+v", page)
	}
}

func TestGetAndAttachAudio(t *testing.T) {
	s := NewInMemory()
	created, err := s.Create(context.Background(), Call{AgentName: "Dana Reyes"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := s.AttachAudio(context.Background(), created.ID, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty url, got %v", err)
	}
	if _, err := s.AttachAudio(context.Background(), "missing", "https://media.example.com/a.wav"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	updated, err := s.AttachAudio(context.Background(), created.ID, "https://media.example.com/a.wav")
	if err != nil {
		t.Fatalf("AttachAudio: %v", err)
	}
	if updated.AudioURL != "https://media.example.com/a.wav" {
		t.Fatalf("audio url not attached: %+v", updated)
	}

	got, err := s.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AudioURL != updated.AudioURL {
		t.Fatalf("attachment not visible through Get: %+v", got)
	}
}
