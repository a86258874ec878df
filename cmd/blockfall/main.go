package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/blockfall/config"
	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/input"
	"github.com/lixenwraith/blockfall/logging"
	"github.com/lixenwraith/blockfall/network"
	"github.com/lixenwraith/blockfall/status"
	"github.com/lixenwraith/blockfall/versus"
)

var (
	modeFlag      = flag.String("mode", "marathon", "marathon, sprint, ultra, endless, host or join")
	addrFlag      = flag.String("addr", "", "Address to bind (host) or connect to (join)")
	transportFlag = flag.String("transport", "", "Versus transport: tcp or websocket")
	configFlag    = flag.String("config", "blockfall.toml", "Config file path")
	debugFlag     = flag.Bool("debug", false, "Enable debug logging to file")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "blockfall: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	if *addrFlag != "" {
		cfg.Network.Address = *addrFlag
	}
	if *transportFlag != "" {
		cfg.Network.Transport = *transportFlag
	}

	log, closeLog, err := logging.Setup(cfg.Log.Debug || *debugFlag, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	keys := input.DefaultKeyMap()
	if err := keys.Apply(cfg.Keys); err != nil {
		return fmt.Errorf("keys: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := status.NewRegistry()

	switch *modeFlag {
	case "host", "join":
		role := network.RoleHost
		if *modeFlag == "join" {
			role = network.RoleJoin
		}
		netCfg, err := cfg.NetworkFor(role)
		if err != nil {
			return err
		}
		var wsListener *network.WebSocketListener
		if role == network.RoleHost && netCfg.Transport == network.TransportWebSocket {
			wsListener = network.NewWebSocketListener(netCfg)
			defer wsListener.Close()
			// Joins and status share the game address
			srv := serve(netCfg.Address, status.NewRouter(registry, netCfg.WebSocketPath, wsListener), log)
			defer shutdown(srv)
		}
		if addr := cfg.Network.StatusAddress; addr != "" && (wsListener == nil || addr != netCfg.Address) {
			srv := serve(addr, status.NewRouter(registry, "", nil), log)
			defer shutdown(srv)
		}

		return withScreen(func(d *display, events <-chan tcell.Event) error {
			return playVersus(ctx, cfg, netCfg, wsListener, registry, keys, d, events, log)
		})
	default:
		mode, ok := game.ParseMode(*modeFlag)
		if !ok || mode == game.ModeVersus {
			return fmt.Errorf("unknown mode %q", *modeFlag)
		}
		if addr := cfg.Network.StatusAddress; addr != "" {
			srv := serve(addr, status.NewRouter(registry, "", nil), log)
			defer shutdown(srv)
		}
		return withScreen(func(d *display, events <-chan tcell.Event) error {
			return playSolo(ctx, cfg.Game, mode, registry, keys, d, events, log)
		})
	}
}

// withScreen owns the terminal for fn, restoring it on return or panic.
// Events are pumped from the screen on their own goroutine
func withScreen(fn func(d *display, events <-chan tcell.Event) error) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}

	defer func() {
		r := recover()
		screen.Fini()
		if r != nil {
			fmt.Fprintf(os.Stderr, "\nBLOCKFALL CRASHED: %v\nStack Trace:\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}
			events <- ev
		}
	}()

	return fn(newDisplay(screen), events)
}

func serve(addr string, h http.Handler, log *zap.SugaredLogger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("http server failed", "addr", addr, "error", err)
		}
	}()
	log.Infow("http server listening", "addr", addr)
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// pumpActions translates key events into game actions. Quit cancels a solo
// session; in versus it forfeits during play and keys on the result screen
// become rematch decisions
func pumpActions(ctx context.Context, cancel context.CancelFunc, keys *input.KeyMap, d *display,
	events <-chan tcell.Event, actions chan<- input.Action, decisions chan<- versus.Decision) {
	for {
		var ev tcell.Event
		select {
		case e, ok := <-events:
			if !ok {
				cancel()
				return
			}
			ev = e
		case <-ctx.Done():
			return
		}

		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		a, ok := keys.Lookup(key)

		if decisions == nil {
			if !ok {
				continue
			}
			if a == input.ActionQuit {
				cancel()
				return
			}
			trySend(actions, a)
			continue
		}

		switch d.Phase() {
		case versus.PhasePlaying:
			if ok {
				trySend(actions, a)
			}
		case versus.PhaseResult:
			switch {
			case key.Key() == tcell.KeyRune && (key.Rune() == 'r' || key.Rune() == 'R'):
				trySend(decisions, versus.DecisionRematch)
			case ok && (a == input.ActionForfeit || a == input.ActionQuit || a == input.ActionPause):
				trySend(decisions, versus.DecisionLeave)
			}
		default:
			// Input before play starts is dropped; quitting abandons the lobby
			if ok && a == input.ActionQuit {
				cancel()
				return
			}
		}
	}
}

func trySend[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}
