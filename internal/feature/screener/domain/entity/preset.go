package entity

import (
	"fmt"
	"sort"

	"stock_terminal/internal/feature/marketdata/domain/indicator"
	"stock_terminal/internal/feature/screener/domain"
)

// Preset is a named criteria/order pair.
type Preset struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Criteria    Criteria `json:"criteria"`
	Order       Order    `json:"order"`
}

const (
	PresetOversold = "oversold"
	PresetMomentum = "momentum"
	PresetBreakout = "breakout"
)

// Presets returns the built-in screens for the given thresholds.
func Presets(th Thresholds) map[string]Preset {
	oversold := th.Oversold
	strongMomentum, mildMomentum, dayUp := th.MomentumStrong, th.MomentumMild, th.DayChangeBreakout
	return map[string]Preset{
		PresetOversold: {
			Name:        PresetOversold,
			Description: "RSI at or below the oversold level, lowest RSI first",
			Criteria:    Criteria{MaxRSI: &oversold},
			Order:       OrderRSIAsc,
		},
		PresetMomentum: {
			Name:        PresetMomentum,
			Description: fmt.Sprintf("uptrend with momentum above %g%%, strongest first", strongMomentum),
			Criteria:    Criteria{Trend: indicator.TrendUp, MomentumAbove: &strongMomentum},
			Order:       OrderMomentumDesc,
		},
		PresetBreakout: {
			Name:        PresetBreakout,
			Description: fmt.Sprintf("momentum above %g%% and up more than %g%% on the day, biggest move first", mildMomentum, dayUp),
			Criteria:    Criteria{MomentumAbove: &mildMomentum, DayChangeAbove: &dayUp},
			Order:       OrderDayChangeDesc,
		},
	}
}

// PresetByName looks up a built-in preset.
func PresetByName(name string, th Thresholds) (Preset, error) {
	p, ok := Presets(th)[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", domain.ErrUnknownPreset, name)
	}
	return p, nil
}

// PresetNames returns the preset names in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, 3)
	for n := range Presets(DefaultThresholds()) {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
