package pricing

import (
	"fmt"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
)

// DefaultHourlyRates are in minor currency units per 60 minutes.
var DefaultHourlyRates = map[domain.ServiceType]int64{
	domain.ServiceTarotReading:         6000,
	domain.ServiceEnergyCleaning:       5000,
	domain.ServiceHebrewPendulum:       5500,
	domain.ServicePersonalConsultation: 7000,
}

// Table prices a session by prorating the service's hourly rate over its duration,
// rounding to the nearest minor unit.
type Table struct {
	rates    map[domain.ServiceType]int64
	fallback int64
}

// NewTable overlays overrides on DefaultHourlyRates. fallback prices any service without
// a rate.
func NewTable(overrides map[domain.ServiceType]int64, fallback int64) (*Table, error) {
	rates := make(map[domain.ServiceType]int64, len(DefaultHourlyRates))
	for k, v := range DefaultHourlyRates {
		rates[k] = v
	}
	for k, v := range overrides {
		if !k.Valid() {
			return nil, fmt.Errorf("pricing: unknown service type %q", k)
		}
		if v < 0 {
			return nil, fmt.Errorf("pricing: negative rate for %s", k)
		}
		rates[k] = v
	}
	if fallback < 0 {
		return nil, fmt.Errorf("pricing: negative fallback rate")
	}
	return &Table{rates: rates, fallback: fallback}, nil
}

func (t *Table) PriceFor(serviceType domain.ServiceType, durationMinutes int) int64 {
	if durationMinutes <= 0 {
		return 0
	}
	rate, ok := t.rates[serviceType]
	if !ok {
		rate = t.fallback
	}
	return (rate*int64(durationMinutes) + 30) / 60
}
