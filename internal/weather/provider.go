package weather

import (
	"context"
)

// Provider abstracts the weather data source (Open-Meteo).
// Fetch answers with values positioned in the order of spec.Fields.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, spec QuerySpec) (*RawResponse, error)
}
