// Package gateway wires the stores, the dialog engine and the transport
// channels together and runs the event loop.
package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rraild/vuzbot/internal/bus"
	"github.com/rraild/vuzbot/internal/catalog"
	"github.com/rraild/vuzbot/internal/channel"
	"github.com/rraild/vuzbot/internal/config"
	"github.com/rraild/vuzbot/internal/cron"
	"github.com/rraild/vuzbot/internal/dialog"
	"github.com/rraild/vuzbot/internal/profile"
)

// Options for creating a Gateway.
type Options struct {
	// SignalChan overrides the OS signal channel (for testing).
	SignalChan chan os.Signal
	// Profiles/Catalog override the sqlite-backed stores (for testing).
	Profiles dialog.ProfileStore
	Catalog  dialog.CatalogStore
}

type Gateway struct {
	cfg      *config.Config
	log      *zap.Logger
	bus      *bus.MessageBus
	channels *channel.ChannelManager
	engine   *dialog.Engine
	cron     *cron.Service

	profiles   *profile.Store
	catalog    *catalog.Store
	signalChan chan os.Signal
}

// New creates a Gateway with default options.
func New(cfg *config.Config, log *zap.Logger) (*Gateway, error) {
	return NewWithOptions(cfg, log, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing.
func NewWithOptions(cfg *config.Config, log *zap.Logger, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg, log: log, signalChan: opts.SignalChan}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)
	g.cron = cron.NewService(cfg.Stores.Keepalive, log)

	profiles := opts.Profiles
	if profiles == nil {
		store, err := profile.OpenStore(cfg.Stores.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("open profile store: %w", err)
		}
		g.profiles = store
		g.cron.Register("profiles", store)
		profiles = store
	}

	cat := opts.Catalog
	if cat == nil {
		store, err := catalog.OpenStore(cfg.Stores.CatalogPath)
		if err != nil {
			g.closeStores()
			return nil, fmt.Errorf("open catalog store: %w", err)
		}
		g.catalog = store
		g.cron.Register("catalog", store)
		cat = store
	}

	g.engine = dialog.NewEngine(profiles, cat, log)

	chMgr, err := channel.NewChannelManager(cfg.Channels, g.bus, log)
	if err != nil {
		g.closeStores()
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	return g, nil
}

// Run starts everything and blocks until SIGINT/SIGTERM.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	g.log.Info("channels started", zap.Strings("channels", g.channels.EnabledChannels()))

	if err := g.cron.Start(ctx); err != nil {
		g.log.Warn("keepalive start failed", zap.Error(err))
	}

	go g.processLoop(ctx)

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	g.log.Info("shutting down")
	return g.Shutdown()
}

// processLoop feeds inbound events to the dialog engine one at a time. The
// transport delivers at most one in-flight event per user; no per-user
// locking happens here.
func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case ev := <-g.bus.Inbound:
			g.log.Debug("inbound event",
				zap.String("channel", ev.Channel),
				zap.String("sender", ev.SenderID),
				zap.Bool("choice", ev.IsChoice()))
			for _, reply := range g.engine.Handle(ctx, ev) {
				g.bus.Outbound <- reply
			}
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) Shutdown() error {
	if g.channels != nil {
		_ = g.channels.StopAll()
	}
	g.cron.Stop()
	g.closeStores()
	return nil
}

func (g *Gateway) closeStores() {
	if g.profiles != nil {
		_ = g.profiles.Close()
	}
	if g.catalog != nil {
		_ = g.catalog.Close()
	}
}
