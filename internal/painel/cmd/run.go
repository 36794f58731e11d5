package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/config"
	"github.com/wrale/wrale-painel/internal/painel/display"
	"github.com/wrale/wrale-painel/internal/painel/display/term"
	"github.com/wrale/wrale-painel/internal/painel/display/ws"
	"github.com/wrale/wrale-painel/internal/painel/engine"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	httpapi "github.com/wrale/wrale-painel/internal/painel/http"
	"github.com/wrale/wrale-painel/internal/painel/identity"
	"github.com/wrale/wrale-painel/internal/painel/pairing"
	"github.com/wrale/wrale-painel/internal/painel/player"
	"github.com/wrale/wrale-painel/internal/painel/playlog"
	playlogpg "github.com/wrale/wrale-painel/internal/painel/playlog/postgres"
	"github.com/wrale/wrale-painel/internal/painel/poller"
	"github.com/wrale/wrale-painel/internal/painel/render"
	"github.com/wrale/wrale-painel/internal/painel/snapshot"
	snapredis "github.com/wrale/wrale-painel/internal/painel/snapshot/redis"
	"github.com/wrale/wrale-painel/internal/painel/store/bolt"
)

const shutdownTimeout = 10 * time.Second

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the player",
		Long: `Run the player daemon. It serves the kiosk page websocket and the
local API on the listen address, shows the setup screen until the device
is paired, then polls the backend and drives the display cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, cmd)
		},
	}
}

// session holds the components that exist once the device is paired
type session struct {
	player *player.Player
	poller *poller.Poller
}

func (a *app) run(ctx context.Context, cmd *cobra.Command) error {
	cfg := a.cfg
	logger := a.logger

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	backend, err := a.backend()
	if err != nil {
		return err
	}

	cache, closeCache, err := a.snapshotCache(ctx, store)
	if err != nil {
		return err
	}
	defer closeCache()

	recorder, stopRecorder, err := a.playlogRecorder(ctx)
	if err != nil {
		return err
	}
	defer stopRecorder()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub(logger)
	go hub.Run(hubCtx)

	var sink display.Sink = hub
	if cfg.Preview {
		sink = display.Multi{hub, term.New(cmd.OutOrStdout())}
	}

	setup := newSetupFlow(pairing.NewService(backend, store, logger), sink)

	var current atomic.Pointer[session]
	status := httpapi.StatusFunc(func(ctx context.Context) v1alpha1.PlayerStatus {
		st := v1alpha1.PlayerStatus{}
		if s := current.Load(); s != nil {
			st = s.player.Status()
			ps := s.poller.Status()
			if !ps.LastFetch.IsZero() {
				st.LastFetch = &ps.LastFetch
			}
			st.LastError = ps.LastError
		}
		st.Connections = hub.Connections()
		return st
	})

	handler := httpapi.NewHandler(setup, status, hub, logger)
	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("listen", cfg.Listen).Msg("starting kiosk server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		logger.Info().Msg("player stopped")
	}()

	id, err := a.awaitPairing(ctx, store, setup, serverErr)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	opts := []poller.Option{
		poller.WithInterval(cfg.Timings.PollInterval),
		poller.WithRecorder(recorder),
	}
	if cache != nil {
		opts = append(opts, poller.WithCache(cache))
	}

	// The poller and player stop before the cache, recorder and store
	// deferred above are closed.
	sessionCtx, stopSession := context.WithCancel(ctx)

	holder := snapshot.NewHolder(cfg.Layout)
	poll := poller.New(backend, holder, sink, logger, opts...)
	poll.Start(sessionCtx, id)
	defer poll.Wait()
	defer stopSession()

	overlay := render.NewOverlay(sink, hub, render.OverlayOptions{
		DefaultDuration: cfg.Timings.ItemDuration,
		Grace:           cfg.Timings.MediaGrace,
	}, logger)

	p := player.New(player.Config{
		Device:   id,
		Holder:   holder,
		Engine:   engine.New(cfg.Timings.PageInterval),
		Table:    render.NewTable(sink, cfg.Timings.FadeDelay),
		Overlay:  overlay,
		Recorder: recorder,
		Logger:   logger,

		ErrorDwell: cfg.Timings.ErrorDwell,
	})
	current.Store(&session{player: p, poller: poll})

	playerErr := make(chan error, 1)
	go func() { playerErr <- p.Run(sessionCtx) }()

	select {
	case err := <-serverErr:
		stopSession()
		<-playerErr
		return fmt.Errorf("kiosk server: %w", err)
	case err := <-playerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

// awaitPairing returns the stored identifier, or shows the setup screen
// and waits until the operator pairs the device
func (a *app) awaitPairing(ctx context.Context, store identity.Store, setup *setupFlow, serverErr <-chan error) (identity.DeviceID, error) {
	id, err := store.Load(ctx)
	if err == nil {
		setup.markPaired()
		a.logger.Info().Str("device", id.Short()).Msg("device paired")
		return id, nil
	}
	if !perrors.IsNotPaired(err) {
		return "", fmt.Errorf("error loading device identifier: %w", err)
	}

	a.logger.Info().Msg("device not paired, showing setup screen")
	if err := setup.Show(ctx, ""); err != nil {
		return "", err
	}

	select {
	case id := <-setup.Paired():
		return id, nil
	case err := <-serverErr:
		return "", fmt.Errorf("kiosk server: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// snapshotCache opens the configured last-known snapshot cache. The
// returned cache is nil when caching is disabled.
func (a *app) snapshotCache(ctx context.Context, store *bolt.Store) (snapshot.Cache, func(), error) {
	switch a.cfg.Cache.Backend {
	case config.CacheBolt:
		return store, func() {}, nil
	case config.CacheRedis:
		c := snapredis.NewCache(snapredis.Options{
			Addr:     a.cfg.Cache.RedisAddr,
			Password: a.cfg.Cache.RedisPassword,
			DB:       a.cfg.Cache.RedisDB,
		})
		if err := c.Ping(ctx); err != nil {
			// Redis may come up after the player; reads fail until then
			a.logger.Warn().Err(err).Str("addr", a.cfg.Cache.RedisAddr).Msg("redis cache unreachable")
		}
		return c, func() { c.Close() }, nil
	}
	return nil, func() {}, nil
}

// playlogRecorder builds the proof-of-play recorder. Events always go to
// the debug log; with the play log enabled they are also stored in
// PostgreSQL.
func (a *app) playlogRecorder(ctx context.Context) (playlog.Recorder, func(), error) {
	logRec := playlog.NewLogRecorder(a.logger)
	if !a.cfg.Playlog.Enabled {
		return logRec, func() {}, nil
	}

	db, err := playlogpg.Open(ctx, a.cfg.Playlog.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := playlogpg.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	writerCtx, cancel := context.WithCancel(context.Background())
	pg := playlogpg.NewRecorder(db, a.cfg.Playlog.Buffer, a.logger)
	pg.Start(writerCtx)

	stop := func() {
		cancel()
		pg.Wait()
		if n := pg.Dropped(); n > 0 {
			a.logger.Warn().Int64("dropped", n).Msg("play events dropped")
		}
		db.Close()
	}
	return playlog.Multi{logRec, pg}, stop, nil
}
