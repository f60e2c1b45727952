package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabrielmiguelok/formwizard/pkg/state"
)

// DefaultDraftKey is the slot drafts are kept under.
const DefaultDraftKey = "carbonDraft"

// ErrNoDraft is returned by DraftStore.Load when nothing was saved.
var ErrNoDraft = errors.New("no draft saved")

// DraftStore keeps one snapshot of field values under a fixed key. Every save
// replaces the previous snapshot as a whole.
type DraftStore struct {
	store *state.TypedStore[map[string]string]
	key   string
}

// NewDraftStore creates a draft store over store. An empty key means
// DefaultDraftKey.
func NewDraftStore(store state.Store, serializer state.Serializer, key string) *DraftStore {
	if key == "" {
		key = DefaultDraftKey
	}
	if serializer == nil {
		serializer = state.NewJSONSerializer()
	}
	return &DraftStore{
		store: state.NewTypedStore[map[string]string](store, serializer),
		key:   key,
	}
}

// Scoped returns a draft store sharing the same backend whose key is
// namespaced by scope, so each browser installation gets its own slot.
func (d *DraftStore) Scoped(scope string) *DraftStore {
	if scope == "" {
		return d
	}
	return &DraftStore{store: d.store, key: scope + ":" + d.key}
}

// Key returns the storage key.
func (d *DraftStore) Key() string {
	return d.key
}

// Load returns the saved values. Unreadable data yields an error wrapping
// state.ErrInvalidData.
func (d *DraftStore) Load(ctx context.Context) (map[string]string, error) {
	values, err := d.store.Get(ctx, d.key)
	if errors.Is(err, state.ErrKeyNotFound) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %q: %w", d.key, err)
	}
	return values, nil
}

// Save overwrites the draft with values.
func (d *DraftStore) Save(ctx context.Context, values map[string]string) error {
	if err := d.store.Set(ctx, d.key, values, 0); err != nil {
		return fmt.Errorf("save draft %q: %w", d.key, err)
	}
	return nil
}

// Clear removes the draft.
func (d *DraftStore) Clear(ctx context.Context) error {
	return d.store.Delete(ctx, d.key)
}
