package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ladder_bot/internal/models"

	"github.com/bytedance/sonic"
)

// CancelAlgo снимает условный ордер. 51001 (уже сработал/снят) не ошибка.
func (c *Client) CancelAlgo(ctx context.Context, instID, algoID string) error {
	body := []map[string]string{{"instId": instID, "algoId": algoID}}
	payload, _ := sonic.Marshal(body)

	req, err := c.signedRequest(ctx, http.MethodPost, "/api/v5/trade/cancel-algos", string(payload))
	if err != nil {
		return fmt.Errorf("CancelAlgo: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("CancelAlgo do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("CancelAlgo http %d: %s", resp.StatusCode, string(data))
	}

	var r tradeResponse
	_ = json.Unmarshal(data, &r)

	if r.Code == "0" && len(r.Data) > 0 && r.Data[0].SCode == "0" {
		return nil
	}
	if len(r.Data) > 0 && r.Data[0].SCode == "51001" {
		return nil
	}
	return fmt.Errorf("CancelAlgo error: code=%s msg=%s RAW=%s", r.Code, r.Msg, string(data))
}

// CloseMarket закрывает позицию (или её остаток) маркетом, reduceOnly.
func (c *Client) CloseMarket(ctx context.Context, instID string, posSide models.Side, size float64) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("CloseMarket: size <= 0")
	}

	side := "sell" // закрываем long
	if posSide == models.SideShort {
		side = "buy" // закрываем short
	}

	body := map[string]any{
		"instId":     instID,
		"tdMode":     "cross",
		"side":       side,
		"posSide":    string(posSide),
		"ordType":    "market",
		"sz":         formatSize(size),
		"reduceOnly": true,
	}
	payload, _ := sonic.Marshal(body)

	req, err := c.signedRequest(ctx, http.MethodPost, "/api/v5/trade/order", string(payload))
	if err != nil {
		return "", fmt.Errorf("CloseMarket: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("CloseMarket do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("CloseMarket http %d: %s", resp.StatusCode, string(data))
	}

	var r tradeResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("CloseMarket decode: %w", err)
	}
	if len(r.Data) == 0 {
		return "", fmt.Errorf("CloseMarket: empty data code=%s msg=%s", r.Code, r.Msg)
	}
	d := r.Data[0]
	if r.Code != "0" || d.SCode != "0" {
		return "", fmt.Errorf("CloseMarket okx error: code=%s msg=%s sCode=%s sMsg=%s", r.Code, r.Msg, d.SCode, d.SMsg)
	}
	return d.OrdId, nil
}
