package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"ladder_bot/internal/models"

	"github.com/bytedance/sonic"
)

// PlaceLimit выставляет лимитный ордер на вход и возвращает ordId.
func (c *Client) PlaceLimit(
	ctx context.Context,
	instID string,
	side models.Side,
	px float64,
	sz float64,
) (string, error) {

	if px <= 0 {
		return "", fmt.Errorf("PlaceLimit: px <= 0")
	}
	if sz <= 0 {
		return "", fmt.Errorf("PlaceLimit: sz <= 0")
	}

	ordSide := "buy"
	posSide := "long"
	if side == models.SideShort {
		ordSide = "sell"
		posSide = "short"
	}

	body := map[string]string{
		"instId":  instID,
		"tdMode":  "cross",
		"side":    ordSide,
		"posSide": posSide,
		"ordType": "limit",
		"px":      strconv.FormatFloat(px, 'f', -1, 64),
		"sz":      strconv.FormatFloat(sz, 'f', -1, 64),
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("PlaceLimit marshal: %w", err)
	}

	req, err := c.signedRequest(ctx, http.MethodPost, "/api/v5/trade/order", string(payload))
	if err != nil {
		return "", fmt.Errorf("PlaceLimit: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("PlaceLimit do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("PlaceLimit http %d: %s", resp.StatusCode, string(data))
	}

	var r tradeResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("PlaceLimit decode: %w; body=%s", err, string(data))
	}
	if len(r.Data) > 0 && r.Data[0].SCode != "0" {
		return "", fmt.Errorf("PlaceLimit rejected: sCode=%s sMsg=%s", r.Data[0].SCode, r.Data[0].SMsg)
	}
	if r.Code != "0" {
		return "", fmt.Errorf("PlaceLimit error: code=%s msg=%s", r.Code, r.Msg)
	}
	if len(r.Data) == 0 || r.Data[0].OrdId == "" {
		return "", fmt.Errorf("PlaceLimit: empty ordId RAW=%s", string(data))
	}

	return r.Data[0].OrdId, nil
}
