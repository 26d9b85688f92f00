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

// OpenPositions вытаскивает открытые позиции по инструменту и мапит их
// в упрощённую структуру движка.
func (c *Client) OpenPositions(ctx context.Context, instID string) ([]models.OpenPosition, error) {
	path := "/api/v5/account/positions?instType=SWAP&instId=" + instID

	req, err := c.signedRequest(ctx, http.MethodGet, path, "")
	if err != nil {
		return nil, fmt.Errorf("OpenPositions: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenPositions do: %w", err)
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("OpenPositions http %d: %s", resp.StatusCode, string(rb))
	}

	var r openPositionsResponse
	if err := json.Unmarshal(rb, &r); err != nil {
		return nil, fmt.Errorf("OpenPositions decode: %w", err)
	}
	if r.Code != "0" {
		return nil, fmt.Errorf("OpenPositions okx error: code=%s msg=%s", r.Code, r.Msg)
	}

	res := make([]models.OpenPosition, 0, len(r.Data))
	for _, d := range r.Data {
		pos, _ := strconv.ParseFloat(d.Pos, 64)
		if pos == 0 {
			continue
		}
		avgPx, _ := strconv.ParseFloat(d.AvgPx, 64)
		lastPx, _ := strconv.ParseFloat(d.Last, 64)
		if lastPx == 0 {
			lastPx, _ = strconv.ParseFloat(d.MarkPx, 64)
		}

		side := models.SideLong
		if d.PosSide == "short" || pos < 0 {
			side = models.SideShort
		}
		if pos < 0 {
			pos = -pos
		}

		res = append(res, models.OpenPosition{
			InstID:  d.InstId,
			PosSide: side,
			Size:    pos,
			Entry:   avgPx,
			LastPx:  lastPx,
		})
	}
	return res, nil
}

// Balance — эквити аккаунта в USDT.
func (c *Client) Balance(ctx context.Context) (models.Balance, error) {
	req, err := c.signedRequest(ctx, http.MethodGet, "/api/v5/account/balance?ccy=USDT", "")
	if err != nil {
		return models.Balance{}, fmt.Errorf("Balance: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.Balance{}, fmt.Errorf("Balance do: %w", err)
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return models.Balance{}, fmt.Errorf("Balance http %d: %s", resp.StatusCode, string(rb))
	}

	var r struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			TotalEq string `json:"totalEq"`
			Details []struct {
				Ccy     string `json:"ccy"`
				AvailEq string `json:"availEq"`
			} `json:"details"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rb, &r); err != nil {
		return models.Balance{}, fmt.Errorf("Balance decode: %w", err)
	}
	if r.Code != "0" || len(r.Data) == 0 {
		return models.Balance{}, fmt.Errorf("Balance okx error: code=%s msg=%s", r.Code, r.Msg)
	}

	total, _ := strconv.ParseFloat(r.Data[0].TotalEq, 64)
	var avail float64
	for _, d := range r.Data[0].Details {
		if d.Ccy == "USDT" {
			avail, _ = strconv.ParseFloat(d.AvailEq, 64)
			break
		}
	}
	return models.Balance{TotalEq: total, AvailEq: avail}, nil
}

// SetLeverage выставляет кросс-плечо по инструменту.
func (c *Client) SetLeverage(ctx context.Context, instID string, lever int) error {
	body := map[string]string{
		"instId":  instID,
		"lever":   strconv.Itoa(lever),
		"mgnMode": "cross",
	}
	payload, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("SetLeverage marshal: %w", err)
	}

	req, err := c.signedRequest(ctx, http.MethodPost, "/api/v5/account/set-leverage", string(payload))
	if err != nil {
		return fmt.Errorf("SetLeverage: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("SetLeverage do: %w", err)
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("SetLeverage http %d: %s", resp.StatusCode, string(rb))
	}

	var r struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(rb, &r); err != nil {
		return fmt.Errorf("SetLeverage decode: %w", err)
	}
	if r.Code != "0" {
		return fmt.Errorf("SetLeverage okx error: code=%s msg=%s", r.Code, r.Msg)
	}
	return nil
}
