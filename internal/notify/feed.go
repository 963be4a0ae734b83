package notify

import (
	"context"
	"sync"
	"time"

	"auditline.org/internal/ids"
)

// Feed is the server side of the notification contract: an append-only log
// with fan-out to waiting subscribers, so the HTTP handler can hold a
// request open until something newer than the cursor exists. Without a Log
// the feed keeps everything in memory; with one, every publish and every
// cursor read goes through durable storage and the in-process subscribers
// only carry the wake-up signal.
type Feed struct {
	mu    sync.RWMutex
	log   Log
	items []Notification
	subs  map[int]chan Notification
	next  int
}

// NewFeed creates an empty in-memory feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Notification)}
}

// NewFeedWithLog creates a feed backed by durable storage.
func NewFeedWithLog(log Log) *Feed {
	return &Feed{log: log, subs: make(map[int]chan Notification)}
}

// Publish appends a notification and fans it out to all subscribers.
func (f *Feed) Publish(ctx context.Context, kind, message string) (Notification, error) {
	var n Notification
	if f.log != nil {
		var err error
		n, err = f.log.InsertNotification(ctx, kind, message)
		if err != nil {
			return Notification{}, err
		}
	} else {
		n = Notification{
			ID:        ids.New(),
			Kind:      kind,
			Message:   message,
			CreatedAt: time.Now().UTC(),
		}
	}

	f.mu.Lock()
	if f.log == nil {
		f.items = append(f.items, n)
	}
	for _, ch := range f.subs {
		select {
		case ch <- n:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
	f.mu.Unlock()
	return n, nil
}

// After returns every notification strictly newer than the cursor. An empty
// cursor returns the whole log. Never returns nil items without an error.
func (f *Feed) After(ctx context.Context, cursor string) ([]Notification, error) {
	if f.log != nil {
		items, err := f.log.NotificationsAfter(ctx, cursor, 0)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []Notification{}
		}
		return items, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Notification, 0)
	for _, n := range f.items {
		if cursor == "" || n.ID > cursor {
			out = append(out, n)
		}
	}
	return out, nil
}

// MarkRead flips the read flag for one notification.
func (f *Feed) MarkRead(ctx context.Context, id string) error {
	if f.log != nil {
		return f.log.MarkNotificationRead(ctx, id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

// subscribe registers a channel that receives future publishes. The channel
// is closed when the context ends.
func (f *Feed) subscribe(ctx context.Context) <-chan Notification {
	ch := make(chan Notification, 16)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

// Wait returns notifications newer than the cursor, holding for up to
// maxWait when nothing is available yet. Returns an empty slice on timeout
// or context end.
func (f *Feed) Wait(ctx context.Context, cursor string, maxWait time.Duration) ([]Notification, error) {
	items, err := f.After(ctx, cursor)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}
	if maxWait <= 0 {
		return []Notification{}, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()
	ch := f.subscribe(waitCtx)

	for {
		select {
		case <-waitCtx.Done():
			return []Notification{}, nil
		case _, ok := <-ch:
			if !ok {
				return []Notification{}, nil
			}
			// Re-read through After so the caller gets everything
			// since its cursor, not only the event that woke us.
			items, err := f.After(ctx, cursor)
			if err != nil {
				return nil, err
			}
			if len(items) > 0 {
				return items, nil
			}
		}
	}
}
