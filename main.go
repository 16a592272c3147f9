// Command slidingpuzzle starts the sliding puzzle server.
//
// It supports these commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket updates and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "leaderboard list|clear" inspects or resets the stored scores
//
// Flags (or their environment variables) control host/port, puzzle and session
// directories, the leaderboard backend, shuffle depth, debug logging and
// optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/slidingpuzzle/api"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/config"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/session"
	"github.com/wricardo/mcp-training/slidingpuzzle/transport/mcp"
	"github.com/wricardo/mcp-training/slidingpuzzle/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sliding Puzzle Server"
)

const (
	sessionMaxAge          = 24 * time.Hour
	sessionCleanupInterval = time.Hour
	filesystemSyncInterval = 5 * time.Second
)

// appConfig holds the resolved command line settings
type appConfig struct {
	Port              int
	Host              string
	PuzzlesDir        string
	SessionsDir       string
	StaticDir         string
	LeaderboardDSN    string
	ShuffleIterations int
	Debug             bool
	NgrokEnabled      bool
	NgrokAuth         string
	NgrokDomain       string
}

func (c appConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// globalFlags are persistent, so every subcommand accepts them
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		&cli.StringFlag{Name: "puzzles-dir", Value: "puzzles", Usage: "Directory containing puzzle JSON files and images/", Sources: cli.EnvVars("PUZZLES_DIR")},
		&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
		&cli.StringFlag{Name: "static-dir", Usage: "Serve a browser client from this directory", Sources: cli.EnvVars("STATIC_DIR")},
		&cli.StringFlag{Name: "leaderboard", Value: "leaderboard.json", Usage: "Leaderboard DSN: file path, sqlite:<path> or postgres://...", Sources: cli.EnvVars("LEADERBOARD_DSN")},
		&cli.IntFlag{Name: "shuffle-iterations", Value: engine.DefaultShuffleIterations, Usage: "Random moves applied when a game starts", Sources: cli.EnvVars("SHUFFLE_ITERATIONS")},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

func configFromCommand(cmd *cli.Command) appConfig {
	return appConfig{
		Port:              cmd.Int("port"),
		Host:              cmd.String("host"),
		PuzzlesDir:        cmd.String("puzzles-dir"),
		SessionsDir:       cmd.String("sessions-dir"),
		StaticDir:         cmd.String("static-dir"),
		LeaderboardDSN:    cmd.String("leaderboard"),
		ShuffleIterations: cmd.Int("shuffle-iterations"),
		Debug:             cmd.Bool("debug"),
		NgrokEnabled:      cmd.Bool("ngrok"),
		NgrokAuth:         cmd.String("ngrok-auth"),
		NgrokDomain:       cmd.String("ngrok-domain"),
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "slidingpuzzle",
		Usage:   "Sliding puzzle game server with REST, WebSocket and MCP interfaces",
		Version: Version,
		Flags:   globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.Bool("debug"))
			return ctx, nil
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runMCPCommand,
			},
			{
				Name:  "leaderboard",
				Usage: "Inspect or reset stored scores",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "Print the top scores",
						Action: runLeaderboardList,
					},
					{
						Name:   "clear",
						Usage:  "Erase every score",
						Action: runLeaderboardClear,
					},
				},
			},
		},
	}
}

// main loads .env and runs the selected command
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		// Only log if it's not a "file not found" error
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func setupLogging(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// services groups everything the commands need to shut down cleanly
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	configs     *config.Manager
	scores      leaderboard.Store
}

// initializeServices wires the puzzle catalogue, sessions, leaderboard and the
// game service.
func initializeServices(ctx context.Context, cfg appConfig) (*services, error) {
	if err := os.MkdirAll(cfg.PuzzlesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create puzzles directory: %w", err)
	}
	configManager, err := config.NewManager(cfg.PuzzlesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(cfg.SessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence,
		controller.WithShuffleIterations(cfg.ShuffleIterations),
	)

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(sessionMaxAge); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	scores, err := leaderboard.Open(ctx, cfg.LeaderboardDSN)
	if err != nil {
		sessionManager.Close()
		return nil, fmt.Errorf("failed to open leaderboard: %w", err)
	}

	return &services{
		game:        service.NewGameService(sessionManager, configManager, scores),
		sessions:    sessionManager,
		persistence: persistence,
		configs:     configManager,
		scores:      scores,
	}, nil
}

// Close persists sessions and releases timers and the leaderboard
func (s *services) Close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: %v", err)
	}
	s.sessions.Close()
	if err := s.scores.Close(); err != nil {
		log.Printf("Warning: Failed to close leaderboard: %v", err)
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their files are deleted
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneDeletedSessions(manager, persistence); pruned > 0 {
				log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

func pruneDeletedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Printf("Pruned session %s from memory (file deleted)", sess.ID)
		}
	}
	return pruned
}

// newRouter mounts the REST API at root and the MCP proxy at /mcp
func newRouter(svc *services, hub *websocket.Hub, cfg appConfig, mcpBaseURL string) http.Handler {
	opts := []api.Option{api.WithImagesDir(svc.configs.ImagesDir())}
	if cfg.StaticDir != "" {
		opts = append(opts, api.WithStaticDir(cfg.StaticDir))
	}
	apiServer := api.NewServer(svc.game, hub, opts...)
	mcpClient := mcp.NewClient(mcpBaseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	svc, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()

	return runHTTPServer(ctx, svc, cfg)
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, svc *services, cfg appConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	go sessionCleanupRoutine(ctx, svc.sessions, sessionCleanupInterval, sessionMaxAge)
	go filesystemSyncRoutine(ctx, svc.sessions, svc.persistence, filesystemSyncInterval)

	addr := cfg.addr()
	mainRouter := newRouter(svc, hub, cfg, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, mainRouter)
		}()
	}

	var runErr error
	select {
	case sig := <-stop:
		log.Printf("Received signal: %v. Shutting down...", sig)
	case runErr = <-serverErr:
	case <-ctx.Done():
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return runErr
}

// runNgrokTunnel serves handler through a public ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, cfg appConfig, handler http.Handler) {
	if cfg.NgrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// externalAPIAvailable reports whether a server already answers on baseURL
func externalAPIAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runMCPCommand runs an MCP stdio server.
// It reuses an API already listening on host:port; otherwise it starts an
// internal HTTP API bound to a random loopback port and targets that.
func runMCPCommand(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)

	externalURL := "http://" + cfg.addr()
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if externalAPIAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		svc, err := initializeServices(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svc.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Stop()

		opts := []api.Option{api.WithImagesDir(svc.configs.ImagesDir())}
		httpServer := &http.Server{Handler: api.NewServer(svc.game, hub, opts...)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + internalAddr
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func runLeaderboardList(ctx context.Context, cmd *cli.Command) error {
	scores, err := leaderboard.Open(ctx, cmd.String("leaderboard"))
	if err != nil {
		return err
	}
	defer scores.Close()

	entries, err := scores.LoadScores(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.Root().Writer, leaderboard.FormatEntries(entries, time.Now()))
	return nil
}

func runLeaderboardClear(ctx context.Context, cmd *cli.Command) error {
	scores, err := leaderboard.Open(ctx, cmd.String("leaderboard"))
	if err != nil {
		return err
	}
	defer scores.Close()

	if err := scores.ClearScores(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.Root().Writer, "Leaderboard cleared")
	return nil
}
