// Package franzgo wraps a franz-go client configured for producing events.
package franzgo

import (
	"context"
	"errors"
	"strings"
	"time"

	kgo "github.com/twmb/franz-go/pkg/kgo"
)

var ErrClientNil = errors.New("franzgo: client is nil")

type Client struct {
	*kgo.Client
}

type Config struct {
	SeedBrokers    []string
	ClientID       string
	ProduceTimeout time.Duration
	// AllowAutoTopicCreation is meant for local stacks only.
	AllowAutoTopicCreation bool
}

func DefaultConfig() Config {
	return Config{
		ClientID:       "go-cadastro",
		ProduceTimeout: 10 * time.Second,
	}
}

func (c Config) brokers() []string {
	out := make([]string, 0, len(c.SeedBrokers))
	for _, b := range c.SeedBrokers {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Enabled reports whether any broker is configured.
func (c Config) Enabled() bool { return len(c.brokers()) > 0 }

func (c Config) opts() []kgo.Opt {
	clientID := c.ClientID
	if clientID == "" {
		clientID = DefaultConfig().ClientID
	}
	timeout := c.ProduceTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ProduceTimeout
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(c.brokers()...),
		kgo.ClientID(clientID),
		kgo.ProduceRequestTimeout(timeout),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if c.AllowAutoTopicCreation {
		opts = append(opts, kgo.AllowAutoTopicCreation())
	}
	return opts
}

// NewClient does not dial; franz-go connects lazily on first use.
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("franzgo: at least one seed broker is required")
	}
	client, err := kgo.NewClient(cfg.opts()...)
	if err != nil {
		return nil, err
	}
	return &Client{Client: client}, nil
}

func (c *Client) Close() {
	if c == nil || c.Client == nil {
		return
	}
	c.Client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return ErrClientNil
	}
	return c.Client.Ping(ctx)
}
