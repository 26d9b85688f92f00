package service

import "strconv"

func formatPrice(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatSize(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Усечённые ответы OKX v5: только поля, которые реально читаем.

type openPositionsResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstId  string `json:"instId"`
		PosSide string `json:"posSide"`
		Pos     string `json:"pos"`
		AvgPx   string `json:"avgPx"`
		Last    string `json:"last"`
		MarkPx  string `json:"markPx"`
	} `json:"data"`
}

type ordersPendingResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		OrdId string `json:"ordId"`
		Side  string `json:"side"`
		Px    string `json:"px"`
		Sz    string `json:"sz"`
		State string `json:"state"`
	} `json:"data"`
}

type algoPendingResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		AlgoId      string `json:"algoId"`
		State       string `json:"state"`
		TpTriggerPx string `json:"tpTriggerPx"`
		SlTriggerPx string `json:"slTriggerPx"`
	} `json:"data"`
}

type tradeResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		OrdId  string `json:"ordId"`
		AlgoId string `json:"algoId"`
		SCode  string `json:"sCode"`
		SMsg   string `json:"sMsg"`
	} `json:"data"`
}

type instrumentsResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID string `json:"instId"`
		TickSz string `json:"tickSz"`
		LotSz  string `json:"lotSz"`
		MinSz  string `json:"minSz"`
		CtVal  string `json:"ctVal"`
		CtMult string `json:"ctMult"`
		State  string `json:"state"`
	} `json:"data"`
}
