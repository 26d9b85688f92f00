package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ladder_bot/internal/models"
)

// OpenAlgoOrders — живые условные ордера по инструменту.
// TP отличаем по непустому tpTriggerPx.
func (c *Client) OpenAlgoOrders(ctx context.Context, instID string) ([]models.AlgoOrder, error) {
	path := "/api/v5/trade/orders-algo-pending?ordType=conditional&instType=SWAP&instId=" + instID

	req, err := c.signedRequest(ctx, http.MethodGet, path, "")
	if err != nil {
		return nil, fmt.Errorf("OpenAlgoOrders: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlgoOrders do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("OpenAlgoOrders http %d", resp.StatusCode)
	}

	var r algoPendingResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("OpenAlgoOrders decode: %w", err)
	}
	if r.Code != "0" {
		return nil, fmt.Errorf("OpenAlgoOrders okx error: code=%s msg=%s", r.Code, r.Msg)
	}

	res := make([]models.AlgoOrder, 0, len(r.Data))
	for _, d := range r.Data {
		isTP := d.TpTriggerPx != ""
		trigger := d.TpTriggerPx
		if !isTP {
			trigger = d.SlTriggerPx
		}
		px, _ := strconv.ParseFloat(trigger, 64)
		res = append(res, models.AlgoOrder{
			AlgoID:    d.AlgoId,
			IsTP:      isTP,
			TriggerPx: px,
			State:     d.State,
		})
	}
	return res, nil
}
