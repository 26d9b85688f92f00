package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

// AmendAlgo двигает триггер условного ордера на месте, без пересоздания.
// Для TP передаётся newTpTriggerPx, для SL newSlTriggerPx.
func (c *Client) AmendAlgo(ctx context.Context, instID, algoID string, newTriggerPx float64, isTP bool) error {
	if newTriggerPx <= 0 {
		return fmt.Errorf("AmendAlgo: newTriggerPx <= 0")
	}

	body := []map[string]string{{
		"instId": instID,
		"algoId": algoID,
	}}
	if isTP {
		body[0]["newTpTriggerPx"] = formatPrice(newTriggerPx)
		body[0]["newTpOrdPx"] = "-1"
	} else {
		body[0]["newSlTriggerPx"] = formatPrice(newTriggerPx)
		body[0]["newSlOrdPx"] = "-1"
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("AmendAlgo marshal: %w", err)
	}

	req, err := c.signedRequest(ctx, http.MethodPost, "/api/v5/trade/amend-algos", string(payload))
	if err != nil {
		return fmt.Errorf("AmendAlgo: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("AmendAlgo do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("AmendAlgo http %d: %s", resp.StatusCode, string(data))
	}

	var r tradeResponse
	_ = json.Unmarshal(data, &r)

	if r.Code != "0" {
		return fmt.Errorf("AmendAlgo error: code=%s msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}
	if len(r.Data) == 0 || r.Data[0].SCode != "0" {
		return fmt.Errorf("AmendAlgo reject RAW=%s", string(data))
	}
	return nil
}
