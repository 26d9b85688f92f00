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

// CancelOrder снимает лимитный ордер. Код 51001 (ордер уже исполнен/снят)
// считается успехом: биржевая правда важнее локального трекинга.
func (c *Client) CancelOrder(ctx context.Context, instID, ordID string) error {
	body := map[string]string{"instId": instID, "ordId": ordID}
	payload, _ := sonic.Marshal(body)

	req, err := c.signedRequest(ctx, http.MethodPost, "/api/v5/trade/cancel-order", string(payload))
	if err != nil {
		return fmt.Errorf("CancelOrder: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("CancelOrder do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("CancelOrder http %d: %s", resp.StatusCode, string(data))
	}

	var r tradeResponse
	_ = json.Unmarshal(data, &r)

	if r.Code == "0" {
		return nil
	}
	if len(r.Data) > 0 && r.Data[0].SCode == "51001" {
		return nil
	}
	return fmt.Errorf("CancelOrder error: code=%s msg=%s RAW=%s", r.Code, r.Msg, string(data))
}

// OpenOrders — висящие лимитные ордера по инструменту.
func (c *Client) OpenOrders(ctx context.Context, instID string) ([]models.OpenOrder, error) {
	path := "/api/v5/trade/orders-pending?instType=SWAP&instId=" + instID

	req, err := c.signedRequest(ctx, http.MethodGet, path, "")
	if err != nil {
		return nil, fmt.Errorf("OpenOrders: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenOrders do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("OpenOrders http %d: %s", resp.StatusCode, string(data))
	}

	var r ordersPendingResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("OpenOrders decode: %w", err)
	}
	if r.Code != "0" {
		return nil, fmt.Errorf("OpenOrders okx error: code=%s msg=%s", r.Code, r.Msg)
	}

	res := make([]models.OpenOrder, 0, len(r.Data))
	for _, d := range r.Data {
		px, _ := strconv.ParseFloat(d.Px, 64)
		sz, _ := strconv.ParseFloat(d.Sz, 64)
		res = append(res, models.OpenOrder{
			OrdID: d.OrdId,
			Side:  d.Side,
			Px:    px,
			Sz:    sz,
			State: d.State,
		})
	}
	return res, nil
}
