package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"ladder_bot/internal/models"
)

// GetInstrumentMeta тянет спецификацию контракта и текущую цену одним вызовом.
func (c *Client) GetInstrumentMeta(ctx context.Context, instID string) (models.Instrument, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		baseURL+"/api/v5/public/instruments?instType=SWAP&instId="+url.QueryEscape(instID),
		nil,
	)
	if err != nil {
		return models.Instrument{}, fmt.Errorf("GetInstrumentMeta build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Instrument{}, fmt.Errorf("GetInstrumentMeta do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return models.Instrument{}, fmt.Errorf("GetInstrumentMeta http %d: %s", resp.StatusCode, string(b))
	}

	var payload instrumentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Instrument{}, fmt.Errorf("GetInstrumentMeta decode: %w", err)
	}
	if payload.Code != "0" {
		return models.Instrument{}, fmt.Errorf("GetInstrumentMeta okx error %s: %s", payload.Code, payload.Msg)
	}
	if len(payload.Data) == 0 {
		return models.Instrument{}, fmt.Errorf("instrument %s not found", instID)
	}

	inst := payload.Data[0]
	if inst.State != "" && inst.State != "live" {
		return models.Instrument{}, fmt.Errorf("instrument %s not live: state=%s", instID, inst.State)
	}

	parsePos := func(name, s string) (float64, error) {
		if s == "" {
			return 0, fmt.Errorf("%s empty", name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("%s parse: %v (%q)", name, err, s)
		}
		return v, nil
	}

	tickSz, err := parsePos("tickSz", inst.TickSz)
	if err != nil {
		return models.Instrument{}, err
	}
	lotSz, err := parsePos("lotSz", inst.LotSz)
	if err != nil {
		return models.Instrument{}, err
	}
	minSz, err := parsePos("minSz", inst.MinSz)
	if err != nil {
		return models.Instrument{}, err
	}
	ctValBase, err := parsePos("ctVal", inst.CtVal)
	if err != nil {
		return models.Instrument{}, err
	}

	ctMult := 1.0
	if inst.CtMult != "" {
		if v, e := strconv.ParseFloat(inst.CtMult, 64); e == nil && v > 0 {
			ctMult = v
		}
	}

	lastPx, err := c.LastPrice(ctx, instID)
	if err != nil {
		return models.Instrument{}, fmt.Errorf("GetInstrumentMeta ticker: %w", err)
	}
	if lastPx <= 0 {
		return models.Instrument{}, fmt.Errorf("lastPx <= 0: %.10f", lastPx)
	}

	return models.Instrument{
		InstID: inst.InstID,
		LastPx: lastPx,
		TickSz: tickSz,
		LotSz:  lotSz,
		MinSz:  minSz,
		CtVal:  ctValBase * ctMult,
	}, nil
}
