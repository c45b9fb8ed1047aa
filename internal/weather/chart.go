package weather

import (
	"github.com/i474232898/weather-dashboard/internal/common"
)

// Unit tags used by the presentation layer.
const (
	UnitCelsius     = "°C"
	UnitPercent     = "%"
	UnitMPH         = "mph"
	UnitDegrees     = "°"
	UnitMillimetres = "mm"
	UnitCentimetres = "cm"
)

// DefaultSnowfallRatio converts centimetres of snow into millimetres of water.
const DefaultSnowfallRatio = 7.0

// UnitFor derives the display unit of a column from its name.
// Rules are checked in order; the first match wins.
func UnitFor(column string) string {
	switch {
	case common.HasAny(column, "Temperature"):
		return UnitCelsius
	case common.HasAny(column, "Humidity", "Cloud Cover", "Probability"):
		return UnitPercent
	case common.HasAny(column, "Wind Speed"):
		return UnitMPH
	case common.HasAny(column, "Wind Direction"):
		return UnitDegrees
	case common.HasAny(column, "Snowfall"):
		return UnitCentimetres
	case common.HasAny(column, "Precipitation", "Rain", "Showers"):
		return UnitMillimetres
	default:
		return ""
	}
}

// ChartOptions reconciles snowfall with the other precipitation columns.
type ChartOptions struct {
	// SnowfallRatio divides snowfall before it is added to rain and showers.
	// Non-positive uses DefaultSnowfallRatio.
	SnowfallRatio float64
	// SnowfallUnit tags snowfall columns; empty keeps UnitCentimetres.
	SnowfallUnit string
}

// UnitFor derives a column unit, applying the configured snowfall unit.
func (o ChartOptions) UnitFor(column string) string {
	if o.SnowfallUnit != "" && common.HasAny(column, "Snowfall") {
		return o.SnowfallUnit
	}
	return UnitFor(column)
}

// Metric is a single current-mode value with its unit.
type Metric struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

// ChartView is the chart-ready projection of a decoded table.
type ChartView struct {
	Mode    Mode              `json:"mode"`
	Metrics []Metric          `json:"metrics,omitempty"`
	Table   *DecodedTable     `json:"table"`
	Units   map[string]string `json:"units"`
	// Precipitation holds per-row water-equivalent totals for daily tables.
	Precipitation []*float64 `json:"precipitationTotals,omitempty"`
}

// Adapt exposes a table to the presentation layer without modifying it.
func Adapt(table *DecodedTable, opts ChartOptions) ChartView {
	view := ChartView{
		Mode:  table.Mode,
		Table: table,
		Units: make(map[string]string, len(table.Columns)),
	}
	for _, c := range table.Columns {
		view.Units[c] = opts.UnitFor(c)
	}

	switch table.Mode {
	case ModeCurrent:
		if len(table.Rows) == 0 {
			break
		}
		row := table.Rows[0]
		for _, c := range table.Columns {
			m := Metric{Name: c, Unit: view.Units[c]}
			if v, ok := row.Value(c); ok {
				m.Value = &v
			}
			view.Metrics = append(view.Metrics, m)
		}
	case ModeDaily:
		if !hasPrecipitationSum(table) {
			break
		}
		for _, r := range table.Rows {
			total := TotalPrecipitation(r, opts.SnowfallRatio)
			view.Precipitation = append(view.Precipitation, &total)
		}
	}
	return view
}

func hasPrecipitationSum(t *DecodedTable) bool {
	return t.HasColumn("Rain Sum") || t.HasColumn("Showers Sum") || t.HasColumn("Snowfall Sum")
}

// TotalPrecipitation sums rain and showers (mm) with snowfall (cm) converted by ratio.
// Missing columns count as zero. A non-positive ratio falls back to the default.
func TotalPrecipitation(r Row, snowfallRatio float64) float64 {
	if snowfallRatio <= 0 {
		snowfallRatio = DefaultSnowfallRatio
	}
	rain, _ := r.Value("Rain Sum")
	showers, _ := r.Value("Showers Sum")
	snow, _ := r.Value("Snowfall Sum")
	return round2(rain + showers + snow/snowfallRatio)
}
