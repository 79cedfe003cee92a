// Package redis opens the go-redis client used by the remote mirror and the
// HTTP rate limiter.
package redis

import (
	"errors"
	"strings"
	"time"
)

type Mode = string

const (
	ModeSingle   Mode = "single"
	ModeSentinel Mode = "sentinel"
	ModeCluster  Mode = "cluster"
)

// Config is loaded from REDIS_* variables. Namespace prefixes every key the
// service writes.
type Config struct {
	Mode         string
	Addr         string
	Addrs        []string
	MasterName   string
	DB           int
	Username     string
	Password     string
	Namespace    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	TLSEnabled   bool
}

const DefaultNamespace = "cadastro"

var (
	errAddressRequired      = errors.New("redis: address is required")
	errUnsupportedMode      = errors.New("redis: unsupported mode")
	errMasterNameRequired   = errors.New("redis: master name is required for sentinel mode")
	errMasterNameUnexpected = errors.New("redis: master name is only valid for sentinel mode")
	errSingleModeAddrCount  = errors.New("redis: single mode requires exactly one address")
	errClusterModeAddrCount = errors.New("redis: cluster mode requires at least two addresses")
	errClusterDBUnsupported = errors.New("redis: db must be 0 in cluster mode")
	errInvalidDB            = errors.New("redis: db must be >= 0")
)

func (c Config) mode() Mode {
	m := strings.ToLower(strings.TrimSpace(c.Mode))
	if m == "" {
		return ModeSingle
	}
	return Mode(m)
}

// addrs prefers Addrs; Addr is the single-node shorthand.
func (c Config) addrs() []string {
	out := make([]string, 0, len(c.Addrs)+1)
	for _, a := range c.Addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		if a := strings.TrimSpace(c.Addr); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c Config) KeyNamespace() string {
	if ns := strings.Trim(strings.TrimSpace(c.Namespace), ":"); ns != "" {
		return ns
	}
	return DefaultNamespace
}

func (c Config) Validate() error {
	if c.DB < 0 {
		return errInvalidDB
	}
	addrs := c.addrs()
	if len(addrs) == 0 {
		return errAddressRequired
	}
	master := strings.TrimSpace(c.MasterName)

	switch c.mode() {
	case ModeSingle:
		if len(addrs) != 1 {
			return errSingleModeAddrCount
		}
		if master != "" {
			return errMasterNameUnexpected
		}
	case ModeCluster:
		if len(addrs) < 2 {
			return errClusterModeAddrCount
		}
		if master != "" {
			return errMasterNameUnexpected
		}
		if c.DB != 0 {
			return errClusterDBUnsupported
		}
	case ModeSentinel:
		if master == "" {
			return errMasterNameRequired
		}
	default:
		return errUnsupportedMode
	}
	return nil
}
