// Package cep looks up Brazilian postal codes on a ViaCEP-compatible
// service.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vortex-fintech/go-cadastro/foundation/netutil"
	"github.com/vortex-fintech/go-cadastro/foundation/retry"
	"github.com/vortex-fintech/go-cadastro/foundation/taxid"
	"github.com/vortex-fintech/go-cadastro/person"
)

const (
	DefaultBaseURL = "https://viacep.com.br/ws"
	defaultTimeout = 10 * time.Second
	minTimeout     = 200 * time.Millisecond
	maxBodyBytes   = 64 << 10
)

var (
	ErrInvalidCEP = errors.New("cep: postal code must have 8 digits")
	ErrNotFound   = errors.New("cep: postal code not found")
)

// Result is the address registered for a postal code.
type Result struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
}

// Apply fills a with the looked-up fields. The number is the user's and is
// never touched; the postal code is stored as digits.
func (r Result) Apply(a *person.Address) {
	a.Street = r.Street
	a.Complement = r.Complement
	a.Neighborhood = r.Neighborhood
	a.City = r.City
	a.State = r.State
	a.ZipCode = taxid.Digits(r.CEP)
}

type Client struct {
	baseURL string
	client  *http.Client
	policy  retry.Policy
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.client = hc } }
func WithRetry(p retry.Policy) Option       { return func(c *Client) { c.policy = p } }

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: netutil.Timeout(timeout, minTimeout, defaultTimeout)},
		policy:  retry.Fast,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// response mirrors the wire shape; "erro" arrives as a bool or as "true".
type response struct {
	Result
	Erro json.RawMessage `json:"erro"`
}

func (r response) notFound() bool {
	s := strings.Trim(string(r.Erro), `"`)
	return s == "true"
}

// Lookup resolves code (masked or not). Transport failures and 5xx answers
// are retried; 4xx answers and unknown codes are not.
func (c *Client) Lookup(ctx context.Context, code string) (Result, error) {
	digits := taxid.Digits(code)
	if len(digits) != person.ZipCodeLength {
		return Result{}, ErrInvalidCEP
	}

	var out Result
	err := c.policy.Do(ctx, func() error {
		r, err := c.fetch(ctx, digits)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		var pe retry.PermanentError
		if errors.As(err, &pe) {
			return Result{}, pe.Unwrap()
		}
		return Result{}, err
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, digits string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+digits+"/json/", nil)
	if err != nil {
		return Result{}, retry.Permanent(fmt.Errorf("cep: create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("cep: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("cep: read body: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return Result{}, fmt.Errorf("cep: upstream error (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return Result{}, retry.Permanent(ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Result{}, retry.Permanent(fmt.Errorf("cep: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return Result{}, retry.Permanent(fmt.Errorf("cep: parse response: %w", err))
	}
	if r.notFound() {
		return Result{}, retry.Permanent(ErrNotFound)
	}
	return r.Result, nil
}
