package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkordes/claimtrack/internal/domain"
	"github.com/pkordes/claimtrack/internal/repo"
)

// TagSink receives tag lifecycle events from a TagRegistry.
// A sink must not mutate the registry from inside HandleTagEvent.
type TagSink interface {
	HandleTagEvent(ctx context.Context, ev domain.TagEvent)
}

// TagSinkFunc adapts a function to TagSink.
type TagSinkFunc func(ctx context.Context, ev domain.TagEvent)

func (f TagSinkFunc) HandleTagEvent(ctx context.Context, ev domain.TagEvent) { f(ctx, ev) }

// TagRegistry is the single authority over tag identity: at most one live
// tag per name, IDs stable across renames. Every mutation is saved to the
// TagStore (best effort) and then published to subscribed sinks.
//
// The registry is safe for concurrent use. Events are delivered after the
// registry lock is released, so sinks may read from the registry. Mutations
// are serialized with their event delivery, so sinks see events in the order
// the registry applied them.
//
// If the store could not be read at construction the registry never writes
// to it.
type TagRegistry struct {
	store   repo.TagStore
	loadErr error
	log     *slog.Logger

	// pubMu is held from the start of a mutation until its event has reached
	// every sink. It is always taken before mu.
	pubMu  sync.Mutex
	mu     sync.RWMutex
	byID   map[string]domain.Tag
	byName map[string]string // name -> id

	sinkMu   sync.RWMutex
	sinks    []subscription
	nextSink int
}

type subscription struct {
	id   int
	sink TagSink
}

// NewTagRegistry builds a registry seeded from store. A nil store keeps tags
// in memory only. A read failure is logged, the registry starts empty and
// saves are disabled.
func NewTagRegistry(ctx context.Context, store repo.TagStore, log *slog.Logger) *TagRegistry {
	if log == nil {
		log = slog.Default()
	}
	r := &TagRegistry{
		store:  store,
		log:    log,
		byID:   make(map[string]domain.Tag),
		byName: make(map[string]string),
	}
	if store == nil {
		return r
	}
	tags, err := store.ReadAllTags(ctx)
	if err != nil {
		log.Error("reading tags failed; starting empty with saves disabled", "error", err)
		r.loadErr = err
		return r
	}
	for _, t := range tags {
		if _, taken := r.byName[t.Name]; taken {
			continue
		}
		r.byID[t.ID] = t
		r.byName[t.Name] = t.ID
	}
	return r
}

// Subscribe registers sink for future events and returns a function that
// removes it again.
func (r *TagRegistry) Subscribe(sink TagSink) (unsubscribe func()) {
	r.sinkMu.Lock()
	defer r.sinkMu.Unlock()
	r.nextSink++
	id := r.nextSink
	r.sinks = append(r.sinks, subscription{id: id, sink: sink})
	return func() {
		r.sinkMu.Lock()
		defer r.sinkMu.Unlock()
		for i, s := range r.sinks {
			if s.id == id {
				r.sinks = append(r.sinks[:i:i], r.sinks[i+1:]...)
				return
			}
		}
	}
}

// GetOrCreate returns the live tag named name (after trimming), creating it
// with a fresh ID if none exists. Repeated calls return the same Tag value.
func (r *TagRegistry) GetOrCreate(ctx context.Context, name string) (domain.Tag, error) {
	name = domain.NormalizeTagName(name)
	if name == "" {
		return domain.Tag{}, fmt.Errorf("service.TagRegistry.GetOrCreate: %w: tag name is required", domain.ErrValidation)
	}
	if t, ok := r.FindByName(name); ok {
		return t, nil
	}

	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	r.mu.Lock()
	if id, ok := r.byName[name]; ok {
		// Lost a race with another creator.
		t := r.byID[id]
		r.mu.Unlock()
		return t, nil
	}
	t, err := domain.NewTag(name)
	if err != nil {
		r.mu.Unlock()
		return domain.Tag{}, fmt.Errorf("service.TagRegistry.GetOrCreate: %w", err)
	}
	r.byID[t.ID] = t
	r.byName[t.Name] = t.ID
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.publish(ctx, domain.TagCreatedEvent(t))
	return t, nil
}

// FindByName looks up a live tag by exact (trimmed) name.
func (r *TagRegistry) FindByName(name string) (domain.Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[domain.NormalizeTagName(name)]
	if !ok {
		return domain.Tag{}, false
	}
	return r.byID[id], true
}

// FindByID looks up a live tag by ID.
func (r *TagRegistry) FindByID(id string) (domain.Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// Tags returns every live tag ordered by name, case-insensitively.
func (r *TagRegistry) Tags() []domain.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// List returns the live tags whose name starts with prefix, ignoring case.
func (r *TagRegistry) List(prefix string) []domain.Tag {
	all := r.Tags()
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return all
	}
	out := all[:0]
	for _, t := range all {
		if strings.HasPrefix(strings.ToLower(t.Name), prefix) {
			out = append(out, t)
		}
	}
	return out
}

// Rename replaces tag with a value carrying the same ID and newName, and
// publishes a TagRenamed event. The caller must drop its old reference.
//
// Returns domain.ErrNotFound if tag is not the currently registered value
// for its ID, and domain.ErrValidation if newName is empty or taken by a
// different tag. Renaming to the current name is a no-op.
func (r *TagRegistry) Rename(ctx context.Context, tag domain.Tag, newName string) (domain.Tag, error) {
	newName = domain.NormalizeTagName(newName)
	if newName == "" {
		return domain.Tag{}, fmt.Errorf("service.TagRegistry.Rename: %w: tag name is required", domain.ErrValidation)
	}

	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	r.mu.Lock()
	current, ok := r.byID[tag.ID]
	if !ok || current.Name != tag.Name {
		r.mu.Unlock()
		return domain.Tag{}, fmt.Errorf("service.TagRegistry.Rename: tag %q: %w", tag.Name, domain.ErrNotFound)
	}
	if current.Name == newName {
		r.mu.Unlock()
		return current, nil
	}
	if _, taken := r.byName[newName]; taken {
		r.mu.Unlock()
		return domain.Tag{}, fmt.Errorf("service.TagRegistry.Rename: %w: tag name %q already in use", domain.ErrValidation, newName)
	}
	renamed, err := current.Renamed(newName)
	if err != nil {
		r.mu.Unlock()
		return domain.Tag{}, fmt.Errorf("service.TagRegistry.Rename: %w", err)
	}
	delete(r.byName, current.Name)
	r.byName[renamed.Name] = renamed.ID
	r.byID[renamed.ID] = renamed
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.publish(ctx, domain.TagRenamedEvent(current, renamed))
	return renamed, nil
}

// DeleteByID removes the tag with id and publishes a TagDeleted event.
// Deleting an absent tag does nothing.
func (r *TagRegistry) DeleteByID(ctx context.Context, id string) {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	r.mu.Lock()
	t, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byID, id)
	delete(r.byName, t.Name)
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.publish(ctx, domain.TagDeletedEvent(t))
}

// DeleteByName removes the tag named name, if any.
func (r *TagRegistry) DeleteByName(ctx context.Context, name string) {
	if t, ok := r.FindByName(name); ok {
		r.DeleteByID(ctx, t.ID)
	}
}

// Flush saves the current tag set and reports any store error, for callers
// that want to retry after a logged save failure. It refuses to write a store
// that could not be read at startup.
func (r *TagRegistry) Flush(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	if r.loadErr != nil {
		return fmt.Errorf("service.TagRegistry.Flush: %w: store was not read at startup: %w", domain.ErrPersistence, r.loadErr)
	}
	r.mu.RLock()
	tags := r.snapshotLocked()
	r.mu.RUnlock()
	if err := r.store.SaveAllTags(ctx, tags); err != nil {
		return fmt.Errorf("service.TagRegistry.Flush: %w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *TagRegistry) snapshotLocked() []domain.Tag {
	tags := make([]domain.Tag, 0, len(r.byID))
	for _, t := range r.byID {
		tags = append(tags, t)
	}
	domain.SortTags(tags)
	return tags
}

// persistLocked saves the tag set while r.mu is held, so saves land in the
// same order as the mutations. Failures are logged, not returned.
func (r *TagRegistry) persistLocked(ctx context.Context) {
	if r.store == nil {
		return
	}
	if r.loadErr != nil {
		r.log.WarnContext(ctx, "skipping tag save; store was not read at startup")
		return
	}
	if err := r.store.SaveAllTags(ctx, r.snapshotLocked()); err != nil {
		r.log.ErrorContext(ctx, "saving tags failed", "error", err)
	}
}

func (r *TagRegistry) publish(ctx context.Context, ev domain.TagEvent) {
	r.sinkMu.RLock()
	sinks := make([]TagSink, len(r.sinks))
	for i, s := range r.sinks {
		sinks[i] = s.sink
	}
	r.sinkMu.RUnlock()

	r.log.DebugContext(ctx, "tag event", "kind", string(ev.Kind), "tag_id", ev.Tag.ID, "name", ev.Tag.Name)
	for _, s := range sinks {
		s.HandleTagEvent(ctx, ev)
	}
}
