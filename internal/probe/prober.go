package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"keypulse-go/internal/config"
	"keypulse-go/internal/constants"
)

// billingExhaustedStatus is the provider's deterministic "out of credit"
// answer.
const billingExhaustedStatus = http.StatusPaymentRequired

// Prober issues the minimal billable request used to read a balance
// header. Each probe consumes a trivial amount of the key's remaining
// balance; that is the cost of an authoritative answer.
type Prober struct {
	endpoint       string
	model          string
	balanceHeader  string
	fallbackHeader string
	client         *http.Client
}

func New(cfg config.ProbeConfig) *Prober {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = constants.DefaultProbeTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.DefaultDialTimeout,
			KeepAlive: constants.DefaultKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   constants.DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: constants.DefaultResponseHeaderTimeout,
		MaxIdleConns:          constants.ProbeMaxIdleConns,
		IdleConnTimeout:       constants.ProbeIdleConnTimeout,
	}

	return &Prober{
		endpoint:       cfg.Endpoint,
		model:          cfg.Model,
		balanceHeader:  cfg.BalanceHeader,
		fallbackHeader: cfg.FallbackHeader,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
	Stream    bool          `json:"stream"`
}

// Probe performs one 1-token generation request with the given key. It
// never retries; any failure mode collapses into KindUnknown and the
// caller moves on to the next credential.
func (p *Prober) Probe(ctx context.Context, apiKey string) Result {
	payload, err := json.Marshal(chatRequest{
		Model:     p.model,
		Messages:  []chatMessage{{Role: "user", Content: "hi"}},
		MaxTokens: 1,
	})
	if err != nil {
		return Result{Kind: KindUnknown, Err: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{Kind: KindUnknown, Err: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{Kind: KindUnknown, Err: err.Error()}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == billingExhaustedStatus {
		res := Result{Kind: KindExhausted, HTTPStatus: resp.StatusCode}
		if balance, header, ok := p.readBalance(resp); ok {
			res.Balance = balance
			res.HeaderUsed = header
		}
		return res
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if balance, header, ok := p.readBalance(resp); ok {
			return Result{
				Kind:       KindBalance,
				Balance:    balance,
				HeaderUsed: header,
				HTTPStatus: resp.StatusCode,
			}
		}
		return Result{Kind: KindUnknown, HTTPStatus: resp.StatusCode, Err: "balance header missing"}
	}

	return Result{Kind: KindUnknown, HTTPStatus: resp.StatusCode, Err: "unexpected status"}
}

// readBalance checks the primary balance header, then the legacy fallback.
// The two variants are not unit-normalized against each other; callers
// compare whichever answered against the same threshold.
func (p *Prober) readBalance(resp *http.Response) (float64, string, bool) {
	for _, header := range []string{p.balanceHeader, p.fallbackHeader} {
		if header == "" {
			continue
		}
		raw := strings.TrimSpace(resp.Header.Get(header))
		if raw == "" {
			continue
		}
		balance, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		return balance, header, true
	}
	return 0, "", false
}
