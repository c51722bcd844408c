// Package db persists extraction runs in SurrealDB over an auto-reconnecting
// WebSocket connection.
package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/regextract/internal/config"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

const (
	defaultDialTimeout   = 5 * time.Second
	defaultMaxReconnects = 10
)

// Config holds the run store connection settings.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"

	// DialTimeout bounds one WebSocket dial (default 5s).
	DialTimeout time.Duration
	// MaxReconnects caps reconnect attempts after the socket drops (default 10).
	MaxReconnects int
}

// ConfigFrom extracts the SurrealDB settings of the application config.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.MaxReconnects <= 0 {
		c.MaxReconnects = defaultMaxReconnects
	}
	return c
}

// baseURL is the WebSocket endpoint without the /rpc suffix; gorillaws
// appends it itself.
func (c Config) baseURL() string {
	return strings.TrimSuffix(c.URL, "/rpc")
}

// credentials signs in at database scope when AuthLevel is "database" and
// as root otherwise.
func (c Config) credentials() surrealdb.Auth {
	if c.AuthLevel == "database" {
		return surrealdb.Auth{
			Namespace: c.Namespace,
			Database:  c.Database,
			Username:  c.Username,
			Password:  c.Password,
		}
	}
	return surrealdb.Auth{Username: c.Username, Password: c.Password}
}

// Client is the SurrealDB run store. It implements service.RunStore.
type Client struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	logger logger.Logger
}

var forceHTTP1 sync.Once

// NewClient connects, signs in and selects the namespace and database.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	sdkLogger := logger.New(log.Handler())

	conn := dial(cfg, sdkLogger)
	sdkLogger.Info("connecting to run store", "url", cfg.URL, "namespace", cfg.Namespace, "database", cfg.Database)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.URL, err)
	}

	c := &Client{conn: conn, logger: sdkLogger}
	if err := c.open(ctx, cfg); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	return c, nil
}

// dial builds the reconnecting WebSocket connection. It does not connect.
func dial(cfg Config, log logger.Logger) *rews.Connection[*gorillaws.Connection] {
	// WebSocket upgrades fail over HTTP/2, so wss must not negotiate h2.
	forceHTTP1.Do(func() {
		gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{NextProtos: []string{"http/1.1"}}
	})

	codec := surrealcbor.New()
	base := cfg.baseURL()
	conn := rews.New(
		func(context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     base,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      log,
			}), nil
		},
		cfg.DialTimeout,
		codec,
		log,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = cfg.MaxReconnects
	conn.Retryer = retryer
	return conn
}

func (c *Client) open(ctx context.Context, cfg Config) error {
	db, err := surrealdb.FromConnection(ctx, c.conn)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	if _, err := db.SignIn(ctx, cfg.credentials()); err != nil {
		return fmt.Errorf("sign in as %s (%s): %w", cfg.Username, cfg.AuthLevel, err)
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return fmt.Errorf("use %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}
	c.db = db
	return nil
}

// Close closes the connection.
func (c *Client) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// InitSchema defines the run store tables. It is safe to run repeatedly.
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, c.db, SchemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	c.logger.Debug("run store schema ready")
	return nil
}
