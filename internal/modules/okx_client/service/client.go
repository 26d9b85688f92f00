package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"ladder_bot/internal/modules/config"
)

const baseURL = "https://www.okx.com"

type Client struct {
	http      *http.Client
	apiKey    string
	apiSecret string
	passph    string
	simulated bool

	// offset серверного времени OKX в миллисекундах, подмешивается в подпись
	offsetMs atomic.Int64
}

func New(cfg *config.Config) *Client {
	return &Client{
		http:      &http.Client{Timeout: 15 * time.Second},
		apiKey:    cfg.OKX.APIKey,
		apiSecret: cfg.OKX.APISecret,
		passph:    cfg.OKX.Passphrase,
		simulated: cfg.OKX.Testnet,
	}
}

func (c *Client) sign(ts, method, requestPath, body string) string {
	msg := ts + strings.ToUpper(method) + requestPath + body
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(msg))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func (c *Client) timestamp() string {
	return time.Now().UTC().
		Add(time.Duration(c.offsetMs.Load()) * time.Millisecond).
		Format("2006-01-02T15:04:05.000Z")
}

func (c *Client) signedRequest(ctx context.Context, method, requestPath, body string) (*http.Request, error) {
	ts := c.timestamp()
	sign := c.sign(ts, method, requestPath, body)

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+requestPath, rd)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("OK-ACCESS-KEY", c.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", sign)
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.passph)
	req.Header.Set("Content-Type", "application/json")
	if c.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}
	return req, nil
}

// SyncServerTime подтягивает время OKX и запоминает offset для подписей.
func (c *Client) SyncServerTime(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v5/public/time", nil)
	if err != nil {
		return fmt.Errorf("SyncServerTime new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("SyncServerTime do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("SyncServerTime http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			Ts string `json:"ts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("SyncServerTime decode: %w", err)
	}
	if r.Code != "0" || len(r.Data) == 0 {
		return fmt.Errorf("SyncServerTime okx error: code=%s msg=%s", r.Code, r.Msg)
	}

	serverMs, err := strconv.ParseInt(r.Data[0].Ts, 10, 64)
	if err != nil {
		return fmt.Errorf("SyncServerTime parse ts: %w", err)
	}
	localMs := time.Now().UTC().UnixMilli()
	c.offsetMs.Store(serverMs - localMs)
	return nil
}

// LastPrice — последняя цена сделки из публичного тикера.
func (c *Client) LastPrice(ctx context.Context, instID string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/api/v5/market/ticker?instId="+instID, nil)
	if err != nil {
		return 0, fmt.Errorf("LastPrice new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("LastPrice do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("LastPrice http %d: %s", resp.StatusCode, string(data))
	}

	var r struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			Last string `json:"last"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return 0, fmt.Errorf("LastPrice decode: %w", err)
	}
	if r.Code != "0" || len(r.Data) == 0 {
		return 0, fmt.Errorf("LastPrice okx error: code=%s msg=%s", r.Code, r.Msg)
	}

	px, err := strconv.ParseFloat(r.Data[0].Last, 64)
	if err != nil || px <= 0 {
		return 0, fmt.Errorf("LastPrice parse: %v (%q)", err, r.Data[0].Last)
	}
	return px, nil
}
