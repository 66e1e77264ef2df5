// Command blockyard starts the Blockyard world server.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, WebSocket, /metrics and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "validate" – checks world config files and prints a census of each
//
// Settings come from blockyard.yaml, BLOCKYARD_* environment variables and
// .env; flags override both. An optional ngrok tunnel gives the server a
// public URL during development.
package main

import (
	"context"
	"encoding/json"
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

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/blockyard/api"
	"github.com/wricardo/blockyard/game/config"
	"github.com/wricardo/blockyard/game/service"
	"github.com/wricardo/blockyard/game/session"
	"github.com/wricardo/blockyard/metrics"
	"github.com/wricardo/blockyard/settings"
	"github.com/wricardo/blockyard/storage"
	"github.com/wricardo/blockyard/transport/mcp"
	"github.com/wricardo/blockyard/transport/websocket"
	"github.com/wricardo/blockyard/validate"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"gorm.io/gorm"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Blockyard Server"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Flags live on the root and are inherited
// by every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "blockyard",
		Usage:   AppName,
		Version: Version,
		Flags:   serverFlags(),
		Action:  serveAction,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, metrics and MCP endpoint",
				Action:  serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP server if none is running",
				Action:  mcpAction,
			},
			{
				Name:      "validate",
				Usage:     "Validate world config files (defaults to every file in the config dir)",
				ArgsUsage: "[files...]",
				Action:    validateAction,
			},
		},
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "settings", Usage: "Settings file (default: blockyard.yaml when present)"},
		&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
		&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
		&cli.StringFlag{Name: "config-dir", Usage: "Directory containing world configurations", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "sessions-dir", Usage: "Directory for session files (file storage)"},
		&cli.StringFlag{Name: "storage", Usage: "Session storage: file, file-zstd, sqlite or postgres"},
		&cli.StringFlag{Name: "dsn", Usage: "Database DSN (sqlite path or postgres URL)", Sources: cli.EnvVars("DATABASE_URL")},
		&cli.FloatFlag{Name: "rate-limit", Usage: "Requests per second per client on /api (0 disables)"},
		&cli.BoolFlag{Name: "trust-proxy", Usage: "Key the rate limit by X-Forwarded-For (only behind a reverse proxy)"},
		&cli.BoolFlag{Name: "no-metrics", Usage: "Disable the /metrics endpoint"},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel"},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (or use NGROK_AUTHTOKEN env var)"},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)"},
	}
}

// loadSettings reads the settings file and environment, then applies any
// flags given on the command line.
func loadSettings(cmd *cli.Command) (*settings.Settings, error) {
	s, err := settings.Load(cmd.String("settings"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		s.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("config-dir") {
		s.Server.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("debug") {
		s.Server.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("sessions-dir") {
		s.Storage.SessionsDir = cmd.String("sessions-dir")
	}
	if cmd.IsSet("storage") {
		s.Storage.Driver = cmd.String("storage")
	}
	if cmd.IsSet("dsn") {
		s.Storage.DSN = cmd.String("dsn")
	}
	if cmd.IsSet("rate-limit") {
		s.RateLimit.RPS = cmd.Float("rate-limit")
	}
	if cmd.IsSet("trust-proxy") {
		s.RateLimit.TrustProxy = cmd.Bool("trust-proxy")
	}
	if cmd.Bool("no-metrics") {
		s.Metrics.Enabled = false
	}
	if cmd.IsSet("ngrok") {
		s.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		s.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		s.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	if err := settings.Validate(s); err != nil {
		return nil, err
	}

	// Setup logging
	if s.Server.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
	return s, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	svcs, err := initializeServices(s)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	return runHTTPServer(ctx, svcs, s)
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)

	return runStdioMCPWithInternalServer(ctx, s)
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	var results []validate.ValidationResult
	if files := cmd.Args().Slice(); len(files) > 0 {
		for _, file := range files {
			results = append(results, validate.File(file))
		}
	} else {
		dir := cmd.String("config-dir")
		if dir == "" {
			dir = settings.Default().Server.ConfigDir
		}
		var err error
		if results, err = validate.Dir(dir); err != nil {
			return err
		}
	}

	if !validate.Report(os.Stdout, results) {
		return cli.Exit("some configurations have errors", 1)
	}
	return nil
}

// services bundles everything a running server owns
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	hub         *websocket.Hub
	metrics     *metrics.Collector
	db          *gorm.DB
}

// Close stops the hub, flushes sessions and releases the database
func (s *services) Close() {
	s.hub.Stop()
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: %v", err)
	}
	if s.db != nil {
		if err := storage.Close(s.db); err != nil {
			log.Printf("Warning: failed to close database: %v", err)
		}
	}
}

// initializeServices wires config and session managers, persistence, the
// WebSocket hub, metrics and the game service.
func initializeServices(s *settings.Settings) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(s.Server.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, db, err := newPersistence(s.Storage, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	// Create session manager with persistence
	sessionManager := session.NewManagerWithPersistence(persistence)

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	svcs := &services{
		sessions:    sessionManager,
		persistence: persistence,
		hub:         hub,
		db:          db,
	}

	opts := []service.Option{service.WithBroadcaster(hub)}
	if s.Metrics.Enabled {
		collector, err := metrics.NewCollector()
		if err != nil {
			hub.Stop()
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		svcs.metrics = collector
		opts = append(opts, service.WithRecorder(collector))
		collector.SetActiveSessions(sessionManager.Count())
	}

	svcs.game = service.NewGameService(sessionManager, configManager, opts...)
	return svcs, nil
}

// newPersistence opens the storage backend selected in settings
func newPersistence(cfg settings.StorageSettings, configs session.ConfigLoader) (session.SessionPersistence, *gorm.DB, error) {
	switch cfg.Driver {
	case settings.DriverFile:
		p, err := session.NewFilePersistence(cfg.SessionsDir, configs)
		return p, nil, err

	case settings.DriverFileZstd:
		p, err := session.NewFilePersistence(cfg.SessionsDir, configs, session.WithCompression())
		return p, nil, err

	case settings.DriverSQLite, settings.DriverPostgres:
		db, err := storage.NewConnection(storage.Config{
			Driver:      cfg.Driver,
			DSN:         cfg.DSN,
			MaxOpen:     cfg.MaxOpen,
			MaxIdle:     cfg.MaxIdle,
			MaxLifetime: cfg.MaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		p, err := session.NewSQLPersistence(db, configs)
		if err != nil {
			storage.Close(db)
			return nil, nil, err
		}
		return p, db, nil
	}
	return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
}

// newAPIServer builds the REST/WebSocket handler with metrics and rate limit
func newAPIServer(svcs *services, s *settings.Settings) *api.Server {
	var opts []api.Option
	if svcs.metrics != nil {
		opts = append(opts, api.WithMetrics(svcs.metrics.Handler()))
	}
	if s.RateLimit.RPS > 0 {
		opts = append(opts, api.WithRateLimit(s.RateLimit.RPS, s.RateLimit.Burst))
		if s.RateLimit.TrustProxy {
			opts = append(opts, api.WithTrustedProxy())
		}
	}
	return api.NewServer(svcs.game, svcs.hub, opts...)
}

// mcpHandler serves single JSON-RPC messages over HTTP POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, metrics and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, svcs *services, s *settings.Settings) error {
	addr := s.Server.Addr()
	apiServer := newAPIServer(svcs, s)

	// Create MCP client for /mcp endpoint
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	// Create main router that combines API and MCP
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Start session cleanup routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, svcs.sessions, s.Sessions.CleanupInterval, s.Sessions.MaxAge)
	}()

	// Session files can be removed by hand; keep memory in step
	if s.Storage.Driver == settings.DriverFile || s.Storage.Driver == settings.DriverFileZstd {
		wg.Add(1)
		go func() {
			defer wg.Done()
			filesystemSyncRoutine(ctx, svcs.sessions, svcs.persistence)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)
		if svcs.metrics != nil {
			log.Printf("Metrics: http://%s/metrics", addr)
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Start ngrok tunnel if enabled
	if s.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, s.Ngrok, mainRouter)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Printf("Received shutdown signal. Shutting down...")
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Wait for all goroutines to finish
	wg.Wait()
	log.Println("Server stopped")
	return runErr
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, cfg settings.NgrokSettings, handler http.Handler) {
	if cfg.AuthToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or BLOCKYARD_NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	// Configure ngrok endpoint
	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		log.Printf("Using custom ngrok domain: %s", cfg.Domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(cfg.AuthToken),
	)
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

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window. Persisted copies stay on disk.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := manager.CleanupExpiredSessions(maxAge)
			if removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine periodically syncs in-memory sessions with filesystem state.
// It removes sessions from memory when their corresponding files are deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pruned := pruneOrphanedSessions(manager, persistence)
		if pruned > 0 {
			log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
		}
	}
}

// pruneOrphanedSessions drops in-memory sessions whose persisted copy is gone
func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if !persistence.Exists(sess.ID) {
			if err := manager.DeleteFromMemory(sess.ID); err == nil {
				pruned++
				log.Printf("Pruned session %s from memory (file deleted)", sess.ID)
			}
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an API already listening on the configured address; if
// unavailable, it starts an internal HTTP API bound to a random loopback port
// and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, s *settings.Settings) error {
	externalURL := fmt.Sprintf("http://%s", s.Server.Addr())
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		svcs, err := initializeServices(s)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svcs.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		httpServer := &http.Server{Handler: newAPIServer(svcs, s)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
