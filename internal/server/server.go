package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stacks/internal/catalog"
	"github.com/gravitas-games/stacks/internal/config"
	"github.com/gravitas-games/stacks/pkg/models"
)

// TokenValidator turns a bearer token into a player.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.Player, error)
}

// Server serves player inventories over WebSocket
type Server struct {
	config    *config.Config
	session   *Session
	upgrader  websocket.Upgrader
	httpSrv   *http.Server
	validator TokenValidator
	redis     *redis.Client
	log       logrus.FieldLogger

	// Connection tracking
	connections map[*Connection]bool
	connMu      sync.RWMutex

	// Shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New connects to Redis, fetches the JWT signing key and creates the session.
func New(cfg *config.Config, cat *catalog.Catalog, l logrus.FieldLogger) (*Server, error) {
	l.Info("Initializing server")

	ctx, cancel := context.WithCancel(context.Background())

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	l.WithField("address", cfg.Redis.Address).Info("Connected to Redis")

	validator, err := NewJWTValidator(cfg, NewRedisBlacklist(redisClient, cfg.Redis.BlacklistPrefix), l)
	if err != nil {
		cancel()
		redisClient.Close()
		return nil, fmt.Errorf("failed to initialize JWT validator: %w", err)
	}
	go validator.RunKeyRefresh(ctx)

	session, err := NewSession("main", cfg, cat, NewRedisNotifier(redisClient, cfg.Redis.EventsPrefix), l)
	if err != nil {
		cancel()
		redisClient.Close()
		return nil, err
	}

	srv := newServer(ctx, cancel, cfg, session, validator, l)
	srv.redis = redisClient
	l.Info("Server initialized successfully")
	return srv, nil
}

func newServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, session *Session, validator TokenValidator, l logrus.FieldLogger) *Server {
	return &Server{
		config:      cfg,
		session:     session,
		validator:   validator,
		log:         l,
		connections: make(map[*Connection]bool),
		ctx:         ctx,
		cancel:      cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{"access_token"},
			// TODO: restrict origins once the client is served from a fixed domain
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start begins listening for connections
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.WithField("addr", addr).Info("WebSocket endpoint: /ws, health endpoint: /health")
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.log.Info("Shutting down server")
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	s.connMu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.connMu.RUnlock()
	for _, conn := range conns {
		conn.Close()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	s.log.Info("Server shutdown complete")
	return errors.Join(errs...)
}

// handleWebSocket authenticates and upgrades a connection
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithField("remote", r.RemoteAddr)

	tokenString := extractTokenFromHeader(r)
	if tokenString == "" {
		log.Info("Missing JWT token")
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	player, err := s.validator.ValidateToken(r.Context(), tokenString)
	if err != nil {
		log.WithError(err).Info("Invalid JWT token")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	conn := NewConnection(ws, s, player)

	s.connMu.Lock()
	s.connections[conn] = true
	s.connMu.Unlock()

	defer func() {
		s.connMu.Lock()
		delete(s.connections, conn)
		s.connMu.Unlock()
		log.WithField("player", player.ID).Info("WebSocket connection closed")
	}()

	log.WithField("player", player.ID).Infof("WebSocket connection established: %s", player.Username)
	conn.Handle()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","players":%d}`, s.session.PlayerCount())
}
