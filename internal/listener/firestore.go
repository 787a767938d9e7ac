package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/drivemate/notify/internal/model"
	"github.com/drivemate/notify/internal/notifications"
	fsstore "github.com/drivemate/notify/internal/store/firestore"
)

// watched lists the collections the engine reacts to. Messages are a
// subcollection of every conversation, so they are watched as a group.
var watched = []struct {
	collection string
	group      bool
	updates    bool // keep before-images for update events
}{
	{model.CollectionLessons, false, true},
	{model.CollectionCancellationRequests, false, true},
	{model.CollectionInstructorNotifications, false, false},
	{model.CollectionMessages, true, false},
	{model.CollectionAnnouncements, false, false},
}

// Firestore turns query snapshot changes into events. The first snapshot
// of each listener is the baseline: documents that already existed are
// remembered, not announced. Changes made while a listener reconnects are
// not replayed.
type Firestore struct {
	client   *firestore.Client
	dispatch *Dispatcher
	logger   *slog.Logger
}

func NewFirestore(client *firestore.Client, dispatch *Dispatcher, logger *slog.Logger) *Firestore {
	return &Firestore{client: client, dispatch: dispatch, logger: logger}
}

// Start runs one snapshot listener per watched collection. Blocks until
// ctx is cancelled.
func (w *Firestore) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, c := range watched {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.watch(ctx, c.collection, c.group, c.updates)
		}()
	}
	wg.Wait()
	w.logger.Info("Snapshot listeners stopped")
}

// watch keeps one listener alive with the same backoff as the Postgres feed.
func (w *Firestore) watch(ctx context.Context, collection string, group, updates bool) {
	backoff := reconnectBackoff
	for {
		err := w.listen(ctx, collection, group, updates)
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("Snapshot listener failed, reconnecting...",
			"collection", collection, "error", err, "backoff", backoff)
		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Firestore) listen(ctx context.Context, collection string, group, updates bool) error {
	var q firestore.Query
	if group {
		q = w.client.CollectionGroup(collection).Query
	} else {
		q = w.client.Collection(collection).Query
	}
	it := q.Snapshots(ctx)
	defer it.Stop()

	t := newTracker(collection, updates)
	for {
		snap, err := it.Next()
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", collection, err)
		}

		changes := make([]change, 0, len(snap.Changes))
		for _, dc := range snap.Changes {
			c, err := decodeChange(collection, dc)
			if err != nil {
				w.logger.Warn("Failed to decode document", "collection", collection, "error", err)
				continue
			}
			changes = append(changes, c)
		}

		for _, ev := range t.apply(changes) {
			if err := w.dispatch.Dispatch(ctx, ev); err != nil {
				return fmt.Errorf("dispatch: %w", err)
			}
		}
	}
}

func decodeChange(collection string, dc firestore.DocumentChange) (change, error) {
	c := change{kind: dc.Kind, path: dc.Doc.Ref.Path, id: dc.Doc.Ref.ID}
	if dc.Doc.Ref.Parent != nil && dc.Doc.Ref.Parent.Parent != nil {
		c.parentID = dc.Doc.Ref.Parent.Parent.ID
	}
	if dc.Kind == firestore.DocumentRemoved {
		return c, nil
	}
	doc, ok := model.NewDocument(collection)
	if !ok {
		return c, fmt.Errorf("%w: collection %q", notifications.ErrUnhandledEvent, collection)
	}
	if err := fsstore.Decode(dc.Doc, doc); err != nil {
		return c, err
	}
	c.doc = doc
	return c, nil
}

// --------------------------------------------------------------------------
// Before-image tracking
// --------------------------------------------------------------------------

type change struct {
	kind     firestore.DocumentChangeKind
	path     string
	id       string
	parentID string
	doc      any
}

// tracker converts a listener's change sets into events. It is owned by a
// single listener goroutine.
type tracker struct {
	collection string
	updates    bool
	baselined  bool
	images     map[string]any
}

func newTracker(collection string, updates bool) *tracker {
	return &tracker{collection: collection, updates: updates, images: make(map[string]any)}
}

func (t *tracker) apply(changes []change) []notifications.Event {
	first := !t.baselined
	t.baselined = true

	var events []notifications.Event
	for _, c := range changes {
		if c.kind == firestore.DocumentRemoved {
			delete(t.images, c.path)
			continue
		}

		before, seen := t.images[c.path]
		if t.updates {
			t.images[c.path] = c.doc
		}
		if first {
			continue
		}

		ev := notifications.Event{
			Collection: t.collection,
			DocID:      c.id,
			ParentID:   c.parentID,
			After:      c.doc,
		}
		switch c.kind {
		case firestore.DocumentAdded:
			ev.Op = notifications.OpCreate
		case firestore.DocumentModified:
			if !t.updates {
				continue
			}
			ev.Op = notifications.OpUpdate
			if seen {
				ev.Before = before
			}
		default:
			continue
		}
		events = append(events, ev)
	}
	return events
}
