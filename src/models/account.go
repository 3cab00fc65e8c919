package models

// MAccountState is the payload of an account_update frame. The latest
// frame always wins, there is no merging.
type MAccountState struct {
	NetLiq      float64 `json:"net_liq"`
	Cash        float64 `json:"cash"`
	BuyingPower float64 `json:"buying_power"`
	DayPnL      float64 `json:"day_pnl"`
	Timestamp   int64   `json:"ts"`
}
