// Command tilepuzzle serves image tile puzzles over HTTP, WebSocket and MCP.
//
//	tilepuzzle [flags] [server|stdio-mcp]
//
// "server" (the default) listens for REST, WebSocket and /mcp traffic.
// "stdio-mcp" speaks MCP on stdin/stdout, forwarding tool calls to an API on
// localhost:8080 or to one it starts itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wricardo/mcp-training/tilepuzzle/game/config"
	"github.com/wricardo/mcp-training/tilepuzzle/game/service"
	"github.com/wricardo/mcp-training/tilepuzzle/game/session"
)

const (
	Version = "1.0.0"
	AppName = "Tile Puzzle Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
)

var (
	port         = flag.Int("port", 8080, "port to listen on")
	host         = flag.String("host", "localhost", "interface to bind")
	configDir    = flag.String("config-dir", getConfigDirDefault(), "level pack directory (env CONFIG_DIR)")
	debug        = flag.Bool("debug", false, "log file:line with every message")
	version      = flag.Bool("version", false, "print the version and exit")
	seed         = flag.String("seed", os.Getenv("PUZZLE_SEED"), "scatter seed for reproducible sessions (env PUZZLE_SEED)")
	watch        = flag.Bool("watch", true, "reload packs when the config directory changes")
	ngrokEnabled = flag.Bool("ngrok", false, "also expose the server through an ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "ngrok authtoken (env NGROK_AUTHTOKEN)")
	ngrokDomain  = flag.String("ngrok-domain", "", "reserved ngrok domain")
)

// getConfigDirDefault prefers CONFIG_DIR over ./configs
func getConfigDirDefault() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "configs"
}

func init() {
	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "%s v%s\n\nUsage: %s [flags] [server|stdio-mcp]\n\n", AppName, Version, os.Args[0])
		fmt.Fprintln(w, "Modes:")
		fmt.Fprintln(w, "  server      REST API, WebSocket and /mcp on one port (default)")
		fmt.Fprintln(w, "  stdio-mcp   MCP over stdin/stdout (aliases: mcp-stdio, mcp)")
		fmt.Fprintln(w, "\nFlags:")
		flag.PrintDefaults()
		fmt.Fprintln(w, "\nExamples:")
		fmt.Fprintf(w, "  %s -config-dir ./packs\n", os.Args[0])
		fmt.Fprintf(w, "  %s -seed 42 -port 9090\n", os.Args[0])
		fmt.Fprintf(w, "  %s stdio-mcp\n", os.Args[0])
	}
}

func main() {
	switch err := godotenv.Load(); {
	case err == nil:
		log.Println("[CONFIG] loaded .env")
	case !os.IsNotExist(err):
		log.Printf("[CONFIG] ignoring .env: %v", err)
	}

	flag.Parse()
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		return
	}

	flags := log.LstdFlags
	if *debug {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)

	mode := flag.Arg(0)
	if mode == "" {
		mode = "server"
	}
	log.Printf("%s v%s starting in %s mode", AppName, Version, mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := initializeServices(ctx)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	switch mode {
	case "server", "http":
		runHTTPServer(ctx, svc)
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(svc)
	default:
		flag.Usage()
		log.Fatalf("unknown mode %q", mode)
	}
}

// parseSeed reads the -seed value. An empty string means random scatter.
func parseSeed(s string) (uint64, bool, error) {
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid seed %q: %w", s, err)
	}
	return v, true, nil
}

// initializeServices builds the game service over the pack directory and
// launches session expiry and pack watching for the lifetime of ctx
func initializeServices(ctx context.Context) (service.GameService, error) {
	packs, err := config.NewManager(*configDir)
	if err != nil {
		return nil, fmt.Errorf("level packs: %w", err)
	}

	seedValue, seeded, err := parseSeed(*seed)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager()
	if seeded {
		sessions = session.NewManagerWithSeed(seedValue)
		log.Printf("[SESSION] scatter seed %d", seedValue)
	}

	go expireSessions(ctx, sessions, cleanupInterval, sessionMaxAge)

	if *watch {
		go func() {
			if err := packs.Watch(ctx); err != nil {
				log.Printf("[CONFIG] not watching %s: %v", *configDir, err)
			}
		}()
	}

	return service.NewGameService(sessions, packs), nil
}

// expireSessions drops idle sessions every interval until ctx ends
func expireSessions(ctx context.Context, sessions *session.Manager, interval, maxAge time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if n := sessions.CleanupExpiredSessions(maxAge); n > 0 {
				log.Printf("[SESSION] expired %d idle sessions", n)
			}
		}
	}
}
