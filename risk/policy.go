package risk

import (
	"fmt"
	"time"
)

// Policy holds the daily limits and sizing parameters of the governor.
type Policy struct {
	// Sizing
	RiskPerTrade float64 `yaml:"risk_per_trade" json:"risk_per_trade"` // 0.02
	LotCap       float64 `yaml:"lot_cap" json:"lot_cap"`               // 0.1
	DefaultLots  float64 `yaml:"default_lots" json:"default_lots"`     // 0.01, used when pip value is unknown

	// Circuit breakers
	MaxTradesPerDay int     `yaml:"max_trades_per_day" json:"max_trades_per_day"` // 5
	DailyLossLimit  float64 `yaml:"daily_loss_limit" json:"daily_loss_limit"`     // -0.05

	// Timezone names the calendar that defines a trading day ("Local", "UTC", "Africa/Kampala").
	Timezone string `yaml:"timezone" json:"timezone"`
}

func DefaultPolicy() Policy {
	return Policy{
		RiskPerTrade:    0.02,
		LotCap:          0.1,
		DefaultLots:     0.01,
		MaxTradesPerDay: 5,
		DailyLossLimit:  -0.05,
		Timezone:        "Local",
	}
}

func (p Policy) Validate() error {
	if p.RiskPerTrade <= 0 || p.RiskPerTrade >= 1 {
		return fmt.Errorf("risk.risk_per_trade must be in (0,1), got %g", p.RiskPerTrade)
	}
	if p.LotCap <= 0 {
		return fmt.Errorf("risk.lot_cap must be > 0, got %g", p.LotCap)
	}
	if p.DefaultLots <= 0 || p.DefaultLots > p.LotCap {
		return fmt.Errorf("risk.default_lots must be in (0, lot_cap], got %g", p.DefaultLots)
	}
	if p.MaxTradesPerDay <= 0 {
		return fmt.Errorf("risk.max_trades_per_day must be > 0, got %d", p.MaxTradesPerDay)
	}
	if p.DailyLossLimit >= 0 || p.DailyLossLimit <= -1 {
		return fmt.Errorf("risk.daily_loss_limit must be in (-1,0), got %g", p.DailyLossLimit)
	}
	if _, err := p.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty means the process local zone.
func (p Policy) Location() (*time.Location, error) {
	if p.Timezone == "" || p.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("risk.timezone: %w", err)
	}
	return loc, nil
}
