// Package postgres owns the relational store: connection pool management,
// schema migrations and (in the repositories subpackage) the scan, product,
// reference and quota repositories.
package postgres

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

// sqlOpen is swapped out by tests.
var sqlOpen = sql.Open

// PostgresConfig is the database section of the service config.
type PostgresConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Database         string        `mapstructure:"database"`
	Username         string        `mapstructure:"username"`
	Password         string        `mapstructure:"password"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout"`
	MigrationsPath   string        `mapstructure:"migrations_path"`
	AutoMigrate      bool          `mapstructure:"auto_migrate"`
}

// Pool defaults applied when the config leaves a field at zero.
const (
	defaultMaxOpenConns     = 25
	defaultMaxIdleConns     = 10
	defaultConnMaxLifetime  = 30 * time.Minute
	defaultConnMaxIdleTime  = 5 * time.Minute
	defaultStatementTimeout = 30 * time.Second
	defaultLockTimeout      = 10 * time.Second
	connectTimeout          = 5 * time.Second

	// poolPressure is the in-use share of open connections above which
	// HealthCheck warns.
	poolPressure = 0.8
)

func (c PostgresConfig) withDefaults() PostgresConfig {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = defaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = defaultConnMaxIdleTime
	}
	if c.StatementTimeout <= 0 {
		c.StatementTimeout = defaultStatementTimeout
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = defaultLockTimeout
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return c
}

// DSN is the pgx connection URL. Statement and lock timeouts travel as
// runtime parameters so every pooled session gets them.
func (c PostgresConfig) DSN() string {
	c = c.withDefaults()
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("statement_timeout", strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10))
	q.Set("lock_timeout", strconv.FormatInt(c.LockTimeout.Milliseconds(), 10))
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Connection owns the shared pool the repositories execute against.
type Connection struct {
	db     *sql.DB
	cfg    PostgresConfig
	logger logging.Logger
	once   sync.Once
}

// NewConnection opens the pool, applies the pool limits and pings within
// connectTimeout.
func NewConnection(cfg PostgresConfig, log logging.Logger) (*Connection, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	cfg = cfg.withDefaults()

	db, err := sqlOpen(DriverName, cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "open database")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "ping database")
	}

	log.Info("postgres pool ready",
		logging.String("host", cfg.Host),
		logging.String("database", cfg.Database),
		logging.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return &Connection{db: db, cfg: cfg, logger: log}, nil
}

// NewConnectionWithDB adopts an already open pool.
func NewConnectionWithDB(db *sql.DB, log logging.Logger) *Connection {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Connection{db: db, logger: log}
}

func (c *Connection) DB() *sql.DB { return c.db }

// PoolUsage is the share of open connections currently in use, zero for an
// idle pool.
func (c *Connection) PoolUsage() float64 {
	s := c.db.Stats()
	if s.OpenConnections == 0 {
		return 0
	}
	return float64(s.InUse) / float64(s.OpenConnections)
}

// HealthCheck backs the readiness probe.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "database unreachable")
	}
	if usage := c.PoolUsage(); usage > poolPressure {
		c.logger.Warn("postgres pool under pressure", logging.Float64("usage", usage))
	}
	return nil
}

// Close is idempotent; only the first call closes the pool.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		if err = c.db.Close(); err != nil {
			c.logger.Error("close postgres pool", logging.Err(err))
			return
		}
		c.logger.Info("postgres pool closed")
	})
	return err
}

//Personal.AI order the ending
