// Command engine runs the autonomous client bot for the rail-game server.
//
// The bot logs in, builds the map graph from the static layer, then loops:
// plan goods hauls for every own train, dispatch MOVE commands, spend armor
// on upgrades and advance the game with TURN until the game ends or the
// process is interrupted. An optional HTTP listener exposes a status
// endpoint and a WebSocket event feed for an external visualizer.
//
// Configuration comes from flags, ENGINE_* environment variables and an
// optional config.yaml, in that priority order. Exit codes: 0 on a normal
// stop, 2 on configuration, protocol or auth errors, 3 on socket failures
// and timeouts.
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/MorozVladislav/Engine/api"
	"github.com/MorozVladislav/Engine/bridge"
	"github.com/MorozVladislav/Engine/client"
	"github.com/MorozVladislav/Engine/config"
	"github.com/MorozVladislav/Engine/game/bot"
	"github.com/MorozVladislav/Engine/game/engine"
	"github.com/MorozVladislav/Engine/game/graph"
	"github.com/MorozVladislav/Engine/transport/websocket"
)

// Exit codes for the process.
const (
	exitOK        = 0
	exitGeneric   = 1
	exitProtocol  = 2
	exitTransport = 3
)

// configError marks failures that happen before the client connects.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func main() {
	cmd := &cli.Command{
		Name:  "engine",
		Usage: "autonomous client bot for the rail-game server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to config.yaml"},
			&cli.StringFlag{Name: "host", Usage: "game server host"},
			&cli.IntFlag{Name: "port", Usage: "game server port"},
			&cli.IntFlag{Name: "timeout", Usage: "per-call socket timeout in seconds (0 = unlimited)"},
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "player name"},
			&cli.StringFlag{Name: "password", Usage: "player password"},
			&cli.StringFlag{Name: "game", Usage: "game name to create or join"},
			&cli.IntFlag{Name: "num-players", Usage: "number of players in the game"},
			&cli.IntFlag{Name: "num-turns", Usage: "number of turns of the game"},
			&cli.StringFlag{Name: "listen", Usage: "visualizer feed address, e.g. 127.0.0.1:8080 (empty = disabled)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitOK)
}

// run wires the components together and drives the bot until it stops.
func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return &configError{err}
	}
	applyFlags(cmd, cfg)

	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	if err := cfg.Validate(); err != nil {
		return &configError{err}
	}

	events := bridge.New(64)
	defer events.Close()

	var hub *websocket.Hub
	if cfg.Listen != "" {
		hub = websocket.NewHub()
		go hub.Run()
		go hub.Feed(ctx, events)
	}

	c := client.New(cfg.Host, cfg.Port, time.Duration(cfg.Timeout)*time.Second, cfg.Username, cfg.Password)
	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()
	log.Printf("connected to %s:%d", cfg.Host, cfg.Port)

	login, err := c.Login(client.LoginOptions{
		Game:       cfg.Game,
		NumPlayers: cfg.NumPlayers,
		NumTurns:   cfg.NumTurns,
	})
	if err != nil {
		return err
	}
	log.Printf("logged in as %s (player %s)", login.Name, login.Idx)
	events.Push(bridge.PlayerID, login.Idx)

	staticMap, err := c.MapStatic()
	if err != nil {
		return err
	}
	m, err := engine.ParseMap(staticMap)
	if err != nil {
		return err
	}
	events.Push(bridge.MapStatic, staticMap)
	log.Printf("map %q: %d points, %d lines", m.Name, len(m.Points), len(m.Lines))

	state := engine.NewState(m, login.Idx)
	snapshot, err := c.MapDynamic()
	if err != nil {
		return err
	}
	if err := state.ApplyDynamic(snapshot); err != nil {
		return err
	}
	events.Push(bridge.MapDynamic, snapshot)

	g := graph.New(m)
	g.SetPostPoints(state.MarketPoints(), state.StoragePoints())

	b := bot.New(c, state, g, events)

	if cfg.Listen != "" {
		server := &http.Server{Addr: cfg.Listen, Handler: api.NewServer(b.Status, hub)}
		go func() {
			log.Printf("visualizer feed listening on %s", cfg.Listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("visualizer feed stopped: %v", err)
			}
		}()
		defer server.Close()
	}

	// SIGINT and SIGTERM stop the bot at the next tick boundary; in-flight
	// calls complete first.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		select {
		case sig := <-signals:
			log.Printf("received %s, stopping", sig)
			b.Stop()
		case <-ctx.Done():
			b.Stop()
		}
	}()

	return b.Run()
}

// applyFlags overlays explicitly set flags onto the loaded configuration.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("timeout") {
		cfg.Timeout = int(cmd.Int("timeout"))
	}
	if cmd.IsSet("username") {
		cfg.Username = cmd.String("username")
	}
	if cmd.IsSet("password") {
		cfg.Password = cmd.String("password")
	}
	if cmd.IsSet("game") {
		cfg.Game = cmd.String("game")
	}
	if cmd.IsSet("num-players") {
		cfg.NumPlayers = int(cmd.Int("num-players"))
	}
	if cmd.IsSet("num-turns") {
		cfg.NumTurns = int(cmd.Int("num-turns"))
	}
	if cmd.IsSet("listen") {
		cfg.Listen = cmd.String("listen")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
}

// exitCode maps the error taxonomy onto process exit codes: configuration,
// protocol and auth failures exit 2, socket and timeout failures exit 3.
func exitCode(err error) int {
	var cfgErr *configError
	var badResponse *client.BadServerResponse
	var netErr net.Error

	switch {
	case errors.As(err, &cfgErr),
		errors.As(err, &badResponse),
		errors.Is(err, client.ErrUsernameMissing),
		errors.Is(err, client.ErrHostMissing),
		errors.Is(err, client.ErrPortMissing):
		return exitProtocol
	case errors.As(err, &netErr),
		errors.Is(err, client.ErrNotConnected):
		return exitTransport
	}

	// Frame-level failures surface as wrapped I/O errors from the client.
	var opErr *net.OpError
	if errors.As(err, &opErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return exitTransport
	}
	return exitGeneric
}
