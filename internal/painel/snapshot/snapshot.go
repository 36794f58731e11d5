// Package snapshot holds the content currently being displayed and decides
// when a freshly polled snapshot replaces it.
package snapshot

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/identity"
	"github.com/wrale/wrale-painel/internal/painel/layout"
)

// Snapshot is an accepted, immutable content snapshot
type Snapshot struct {
	Content     *v1alpha1.ContentSnapshot
	Fingerprint uint64
	// Layout is derived from the snapshot orientation at acceptance
	Layout     layout.Params
	AcceptedAt time.Time
}

// Mode returns the configured display mode
func (s *Snapshot) Mode() v1alpha1.DisplayMode {
	return s.Content.Config.Mode
}

// Cache keeps the last accepted snapshot of a device across restarts
type Cache interface {
	SaveSnapshot(ctx context.Context, id identity.DeviceID, snap *v1alpha1.ContentSnapshot) error
	LoadSnapshot(ctx context.Context, id identity.DeviceID) (*v1alpha1.ContentSnapshot, error)
}

// Fingerprint hashes the parts of a snapshot that affect the display cycle:
// products, playlist, mode and orientation. The title is excluded.
func Fingerprint(c *v1alpha1.ContentSnapshot) (uint64, error) {
	data, err := json.Marshal(struct {
		Products    []v1alpha1.Product      `json:"produtos"`
		Playlist    []v1alpha1.PlaylistItem `json:"playlist"`
		Mode        v1alpha1.DisplayMode    `json:"modo"`
		Orientation v1alpha1.Orientation    `json:"orientacao"`
	}{c.Products, c.Playlist, c.Config.Mode, c.Config.Orientation.Normalize()})
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

// Holder publishes the current snapshot to the display loop. Writers call
// Offer; readers call Current and always see the latest accepted value.
type Holder struct {
	settings layout.Settings
	current  atomic.Pointer[Snapshot]

	mu      sync.Mutex
	ready   chan struct{}
	started bool
}

// NewHolder creates an empty holder
func NewHolder(settings layout.Settings) *Holder {
	return &Holder{
		settings: settings,
		ready:    make(chan struct{}),
	}
}

// Offer replaces the current snapshot if content's fingerprint differs.
// first is true only for the very first accepted snapshot.
func (h *Holder) Offer(content *v1alpha1.ContentSnapshot) (snap *Snapshot, accepted, first bool, err error) {
	fp, err := Fingerprint(content)
	if err != nil {
		return nil, false, false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if cur := h.current.Load(); cur != nil && cur.Fingerprint == fp {
		return cur, false, false, nil
	}

	snap = &Snapshot{
		Content:     content,
		Fingerprint: fp,
		Layout:      h.settings.For(content.Config.Orientation),
		AcceptedAt:  time.Now(),
	}
	h.current.Store(snap)

	if !h.started {
		h.started = true
		close(h.ready)
		first = true
	}
	return snap, true, first, nil
}

// Current returns the latest accepted snapshot, or nil before the first one
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Ready is closed once the first snapshot has been accepted
func (h *Holder) Ready() <-chan struct{} {
	return h.ready
}
