// Package app wires the relay together and runs it until it terminates.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/yomipv-lookup/internal/adapter/mpv"
	"github.com/heartmarshall/yomipv-lookup/internal/adapter/popup"
	"github.com/heartmarshall/yomipv-lookup/internal/adapter/provider/kagome"
	"github.com/heartmarshall/yomipv-lookup/internal/adapter/provider/yomitan"
	"github.com/heartmarshall/yomipv-lookup/internal/config"
	"github.com/heartmarshall/yomipv-lookup/internal/domain"
	"github.com/heartmarshall/yomipv-lookup/internal/service/overlay"
	"github.com/heartmarshall/yomipv-lookup/internal/service/relay"
	"github.com/heartmarshall/yomipv-lookup/internal/transport/middleware"
	"github.com/heartmarshall/yomipv-lookup/internal/transport/rest"
	"github.com/heartmarshall/yomipv-lookup/internal/watchdog"
)

const dialTimeout = 3 * time.Second

// Run binds the control listener and the overlay server, connects to mpv
// and serves until ctx is cancelled, /shutdown is received or the parent
// process exits. A bound control port yields domain.ErrAlreadyRunning.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting relay",
		slog.String("version", BuildVersion()),
		slog.String("addr", cfg.Server.Addr()),
		slog.String("log_level", cfg.Log.Level),
	)

	ln, err := listen(ctx, cfg.Server.Addr())
	if err != nil {
		return err
	}

	var overlayLn net.Listener
	if !cfg.Overlay.Disabled {
		overlayLn, err = listen(ctx, cfg.Overlay.Addr())
		if err != nil {
			_ = ln.Close()
			return err
		}
	}

	pipe := connectOutbound(ctx, cfg.MPV.Pipe, logger)

	var reader overlay.Reader
	if !cfg.Reading.DisableFallback {
		kr := kagome.NewReader(logger)
		go kr.Warm()
		reader = kr
	}

	dict := yomitan.NewProviderWithEndpoints(
		cfg.Dictionary.Endpoints(), cfg.Dictionary.MaxEntries, cfg.Dictionary.Timeout, logger)
	hub := popup.NewHub(logger)

	svc := relay.NewService(dict, hub, pipe, reader, relay.Config{
		Messages: relay.Messages{
			Selection:   cfg.MPV.SelectionMessage,
			Dictionary:  cfg.MPV.DictionaryMessage,
			ActiveEntry: cfg.MPV.ActiveEntryMessage,
		},
		ShutdownGrace:     cfg.Server.ShutdownGrace,
		SelectionDebounce: cfg.Selection.Debounce,
	}, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// The relay loop ending (shutdown or parent exit) stops everything else.
	g.Go(func() error {
		defer cancel()
		return svc.Run(gctx)
	})

	mw := middleware.Standard(logger)

	control := newServer(cfg.Server, mw(rest.NewRelayHandler(svc, logger).Routes()))
	g.Go(func() error {
		return serve(gctx, control, ln, cfg.Server.ShutdownTimeout, logger)
	})

	if overlayLn != nil {
		health := rest.NewHealthHandler(BuildVersion(), map[string]rest.Probe{
			"relay": relayProbe(svc),
			"mpv":   pipeProbe(pipe),
			"popup": func() rest.CompStatus {
				return rest.CompStatus{Status: "ok", Detail: fmt.Sprintf("%d pages", hub.Clients())}
			},
		})

		mux := http.NewServeMux()
		mux.HandleFunc("GET /health", health.Health)
		mux.Handle("/", hub.Routes(svc))

		overlaySrv := newServer(cfg.Server, mw(mux))
		overlaySrv.WriteTimeout = 0 // websocket connections are long-lived
		g.Go(func() error {
			<-gctx.Done()
			hub.Close()
			return nil
		})
		g.Go(func() error {
			return serve(gctx, overlaySrv, overlayLn, cfg.Server.ShutdownTimeout, logger)
		})
		logger.Info("overlay ready", slog.String("url", "http://"+cfg.Overlay.Addr()+"/"))
	}

	g.Go(func() error {
		watchdog.New(cfg.Parent.PID, cfg.Parent.PollInterval, logger).Run(gctx, svc.ParentGone)
		return nil
	})

	err = g.Wait()
	logger.Info("relay stopped")
	return err
}

// listen binds addr. An address already in use means another relay owns
// the port.
func listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		if isAddrInUse(err) {
			return nil, fmt.Errorf("app: listen %s: %w", addr, domain.ErrAlreadyRunning)
		}
		return nil, fmt.Errorf("app: listen %s: %w", addr, err)
	}
	return ln, nil
}

// connectOutbound dials mpv. Failure is not fatal: the relay runs with a
// disconnected client and every forward is dropped.
func connectOutbound(ctx context.Context, address string, logger *slog.Logger) *mpv.Client {
	if address == "" {
		logger.Info("no mpv pipe configured, forwarding disabled")
		return mpv.NewClient(nil, logger)
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	client, err := mpv.Dial(dialCtx, address, logger)
	if err != nil {
		logger.Warn("mpv pipe unavailable, forwarding disabled", slog.String("error", err.Error()))
		return mpv.NewClient(nil, logger)
	}
	return client
}

func newServer(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// serve runs srv on ln until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger *slog.Logger) error {
	addr := ln.Addr().String()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", slog.String("addr", addr), slog.String("error", err.Error()))
	}
	return nil
}

func relayProbe(svc *relay.Service) rest.Probe {
	return func() rest.CompStatus {
		st := svc.State()
		if st == relay.StateTerminating {
			return rest.CompStatus{Status: "down", Detail: st.String()}
		}
		return rest.CompStatus{Status: "ok", Detail: st.String()}
	}
}

func pipeProbe(pipe *mpv.Client) rest.Probe {
	return func() rest.CompStatus {
		if pipe.Connected() {
			return rest.CompStatus{Status: "ok"}
		}
		return rest.CompStatus{Status: "disconnected"}
	}
}
