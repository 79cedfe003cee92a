package postgres

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DBConfig is the connection config loaded from env. URL, when set, wins
// over the discrete fields.
type DBConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ApplicationName string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

var (
	errHostRequired         = errors.New("postgres: host is required")
	errPortRequired         = errors.New("postgres: port is required")
	errDBNameRequired       = errors.New("postgres: db name is required")
	errNegativeMaxConns     = errors.New("postgres: max open conns must be >= 0")
	errNegativeIdleConns    = errors.New("postgres: max idle conns must be >= 0")
	errIdleExceedsOpenConns = errors.New("postgres: max idle conns must be <= max open conns")
)

func (c DBConfig) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		if strings.TrimSpace(c.Host) == "" {
			return errHostRequired
		}
		if strings.TrimSpace(c.Port) == "" {
			return errPortRequired
		}
		if strings.TrimSpace(c.DBName) == "" {
			return errDBNameRequired
		}
	}
	if c.MaxOpenConns < 0 {
		return errNegativeMaxConns
	}
	if c.MaxIdleConns < 0 {
		return errNegativeIdleConns
	}
	if c.MaxOpenConns > 0 && c.MaxIdleConns > c.MaxOpenConns {
		return errIdleExceedsOpenConns
	}
	return nil
}

// DSN builds the postgres URL. It is IPv6-safe thanks to net.JoinHostPort.
func (c DBConfig) DSN() string {
	if u := strings.TrimSpace(c.URL); u != "" {
		return u
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + strings.TrimPrefix(c.DBName, "/"),
	}
	if c.User != "" || c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
