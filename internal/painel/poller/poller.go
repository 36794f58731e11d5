// Package poller periodically fetches the device's content and hands
// changed snapshots to the display loop.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/display"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/identity"
	"github.com/wrale/wrale-painel/internal/painel/playlog"
	"github.com/wrale/wrale-painel/internal/painel/snapshot"
)

// DefaultInterval is the time between two polls
const DefaultInterval = 60 * time.Second

// Fetcher retrieves the current content of a device
type Fetcher interface {
	GetSnapshot(ctx context.Context, deviceID string) (*v1alpha1.ContentSnapshot, error)
}

// Status describes the outcome of the last poll
type Status struct {
	LastFetch time.Time `json:"lastFetch,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	Fetches   int       `json:"fetches"`
	Failures  int       `json:"failures"`
}

// Option configures a Poller
type Option func(*Poller)

// WithInterval sets the poll interval
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithCache keeps accepted snapshots in cache and seeds from it on start
func WithCache(cache snapshot.Cache) Option {
	return func(p *Poller) {
		p.cache = cache
	}
}

// WithRecorder reports accepted snapshots to the play log
func WithRecorder(r playlog.Recorder) Option {
	return func(p *Poller) {
		p.recorder = r
	}
}

// Poller fetches content on a fixed interval. There is no backoff; the
// next tick is the retry.
type Poller struct {
	fetcher  Fetcher
	holder   *snapshot.Holder
	sink     display.Sink
	cache    snapshot.Cache
	recorder playlog.Recorder
	interval time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	status Status

	wg sync.WaitGroup
}

// New creates a poller publishing to holder and pushing title and
// orientation frames to sink
func New(fetcher Fetcher, holder *snapshot.Holder, sink display.Sink, logger zerolog.Logger, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		holder:   holder,
		sink:     sink,
		recorder: playlog.Nop{},
		interval: DefaultInterval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs the poller in a new goroutine. Use Wait to block until it
// has returned after ctx is cancelled.
func (p *Poller) Start(ctx context.Context, id identity.DeviceID) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Run(ctx, id)
	}()
}

// Wait blocks until every goroutine started by Start has returned
func (p *Poller) Wait() {
	p.wg.Wait()
}

// Run seeds the holder from the cache, fetches immediately and then once
// per interval until ctx is cancelled. Fetch failures are logged and
// otherwise ignored.
func (p *Poller) Run(ctx context.Context, id identity.DeviceID) {
	p.Seed(ctx, id)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		_, _ = p.FetchOnce(ctx, id)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Seed offers the cached snapshot of id, if any. It reports whether a
// snapshot was accepted.
func (p *Poller) Seed(ctx context.Context, id identity.DeviceID) bool {
	if p.cache == nil || p.holder.Current() != nil {
		return false
	}

	content, err := p.cache.LoadSnapshot(ctx, id)
	if err != nil {
		if !perrors.IsNotFound(err) {
			p.logger.Warn().Err(err).Msg("failed to load cached snapshot")
		}
		return false
	}

	p.logger.Info().Msg("showing cached snapshot until the first poll")
	p.showTitle(ctx, content)
	_, accepted, err := p.accept(ctx, id, content, false)
	if err != nil {
		p.logger.Warn().Err(err).Msg("cached snapshot rejected")
	}
	return accepted
}

// FetchOnce performs a single poll
func (p *Poller) FetchOnce(ctx context.Context, id identity.DeviceID) (*v1alpha1.ContentSnapshot, error) {
	const op = "poller.FetchOnce"

	content, err := p.fetcher.GetSnapshot(ctx, id.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ferr := perrors.Fetch(op, err)
		p.logger.Error().Err(err).Msg("failed to fetch content")
		p.setStatus(ferr)
		return nil, ferr
	}
	p.setStatus(nil)

	content.Playlist = p.knownItems(content.Playlist)
	p.showTitle(ctx, content)

	if _, _, err := p.Accept(ctx, id, content); err != nil {
		p.logger.Error().Err(err).Msg("failed to accept content")
		return content, err
	}
	return content, nil
}

// Accept offers content to the holder. When it replaces the current
// snapshot, the orientation frame is pushed, the cache is refreshed and
// the change is recorded.
func (p *Poller) Accept(ctx context.Context, id identity.DeviceID, content *v1alpha1.ContentSnapshot) (*snapshot.Snapshot, bool, error) {
	return p.accept(ctx, id, content, true)
}

func (p *Poller) accept(ctx context.Context, id identity.DeviceID, content *v1alpha1.ContentSnapshot, save bool) (*snapshot.Snapshot, bool, error) {
	snap, accepted, first, err := p.holder.Offer(content)
	if err != nil {
		return nil, false, err
	}
	if !accepted {
		p.logger.Debug().Msg("content unchanged")
		return snap, false, nil
	}

	p.logger.Info().
		Str("mode", string(content.Config.Mode)).
		Str("orientation", string(snap.Layout.Orientation)).
		Int("products", len(content.Products)).
		Int("playlist", len(content.Playlist)).
		Bool("first", first).
		Msg("content updated")

	frame := v1alpha1.NewFrame(v1alpha1.FrameOrientation)
	frame.Orientation = snap.Layout.Orientation
	if err := p.sink.Show(ctx, frame); err != nil {
		p.logger.Warn().Err(err).Msg("failed to push orientation")
	}

	if save && p.cache != nil {
		if err := p.cache.SaveSnapshot(ctx, id, content); err != nil {
			p.logger.Warn().Err(err).Msg("failed to cache snapshot")
		}
	}

	ev := playlog.NewEvent(id.String(), playlog.EventSnapshotAccepted)
	ev.Fingerprint = snap.Fingerprint
	p.recorder.Record(ctx, ev)

	return snap, true, nil
}

func (p *Poller) showTitle(ctx context.Context, content *v1alpha1.ContentSnapshot) {
	frame := v1alpha1.NewFrame(v1alpha1.FrameTitle)
	frame.Title = content.Config.Title
	if err := p.sink.Show(ctx, frame); err != nil {
		p.logger.Warn().Err(err).Msg("failed to push title")
	}
}

// knownItems drops playlist items of kinds this player cannot show
func (p *Poller) knownItems(items []v1alpha1.PlaylistItem) []v1alpha1.PlaylistItem {
	out := items[:0:0]
	for _, item := range items {
		if item.Kind() == v1alpha1.KindUnknown {
			p.logger.Warn().Str("kind", string(item.RawKind())).Msg("dropping playlist item of unknown kind")
			continue
		}
		out = append(out, item)
	}
	return out
}

func (p *Poller) setStatus(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.LastFetch = time.Now()
	p.status.Fetches++
	if err != nil {
		p.status.Failures++
		p.status.LastError = err.Error()
		return
	}
	p.status.LastError = ""
}

// Status returns the outcome of the last poll
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
