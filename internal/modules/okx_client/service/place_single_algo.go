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

// PlaceSingleAlgo ставит один условный ордер (TP или SL) на закрытие позиции.
// Возвращает algoId.
func (c *Client) PlaceSingleAlgo(
	ctx context.Context,
	instID string,
	posSide models.Side,
	size float64,
	triggerPx float64,
	isTP bool,
) (string, error) {

	// 1. Сторона закрывающего ордера
	var side string
	switch posSide {
	case models.SideLong:
		side = "sell"
	case models.SideShort:
		side = "buy"
	default:
		return "", fmt.Errorf("PlaceSingleAlgo: unsupported posSide=%q", posSide)
	}

	if size <= 0 {
		return "", fmt.Errorf("PlaceSingleAlgo: size <= 0")
	}
	if triggerPx <= 0 {
		return "", fmt.Errorf("PlaceSingleAlgo: triggerPx <= 0")
	}

	body := map[string]string{
		"instId":     instID,
		"tdMode":     "cross",
		"side":       side,
		"posSide":    string(posSide),
		"ordType":    "conditional",
		"sz":         formatSize(size),
		"reduceOnly": "true",
	}

	if isTP {
		body["tpTriggerPx"] = formatPrice(triggerPx)
		body["tpOrdPx"] = "-1"
		body["tpTriggerPxType"] = "last"
	} else {
		body["slTriggerPx"] = formatPrice(triggerPx)
		body["slOrdPx"] = "-1"
		body["slTriggerPxType"] = "last"
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("PlaceSingleAlgo marshal: %w", err)
	}

	req, err := c.signedRequest(ctx, http.MethodPost, "/api/v5/trade/order-algo", string(payload))
	if err != nil {
		return "", fmt.Errorf("PlaceSingleAlgo: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("PlaceSingleAlgo do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("PlaceSingleAlgo http %d: %s", resp.StatusCode, string(data))
	}

	var r tradeResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("PlaceSingleAlgo decode: %w; body=%s", err, string(data))
	}

	// детальный статус
	if len(r.Data) > 0 && r.Data[0].SCode != "0" {
		return "", fmt.Errorf(
			"PlaceSingleAlgo algo rejected: sCode=%s sMsg=%s RAW=%s",
			r.Data[0].SCode, r.Data[0].SMsg, string(data),
		)
	}

	// общий код
	if r.Code != "0" {
		return "", fmt.Errorf(
			"PlaceSingleAlgo error: code=%s msg=%s RAW=%s",
			r.Code, r.Msg, string(data),
		)
	}

	if len(r.Data) == 0 || r.Data[0].AlgoId == "" {
		return "", fmt.Errorf("PlaceSingleAlgo: empty algoId RAW=%s", string(data))
	}

	return r.Data[0].AlgoId, nil
}
