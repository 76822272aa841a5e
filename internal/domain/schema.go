package domain

import (
	"fmt"
	"strings"
)

// DataKind selects the daily or hourly observation product.
type DataKind string

const (
	Daily  DataKind = "daily"
	Hourly DataKind = "hourly"
)

// ParseDataKind validates a data kind string.
func ParseDataKind(s string) (DataKind, error) {
	switch k := DataKind(strings.ToLower(strings.TrimSpace(s))); k {
	case Daily, Hourly:
		return k, nil
	default:
		return "", fmt.Errorf("unknown data kind %q", s)
	}
}

// Schema describes one observation product: where its timestamp lives, how it
// is written, which columns are discarded, and how the output grid is keyed.
type Schema struct {
	Kind DataKind

	// TimestampColumn is the column parsed and merged on.
	TimestampColumn string
	// TimestampLayout is the time.Parse layout of TimestampColumn.
	TimestampLayout string
	// KeyColumn is the column the grid is built on. For hourly data this is the
	// UTC column added by the time-zone normalizer.
	KeyColumn string
	// IndexName is the header written for the grid index.
	IndexName string
	Step      Step

	// Header is the full column list as published, used by mock generators.
	Header      []string
	DropColumns []string
}

// Local reports whether the timestamp column holds local civil time that must
// be normalized to UTC.
func (s Schema) Local() bool { return s.KeyColumn != s.TimestampColumn }

var textColumns = map[string]bool{
	"Station Name": true,
	"Climate ID":   true,
	"Data Quality": true,
	"Weather":      true,
}

// ColumnKind returns the declared kind of a published column.
func (s Schema) ColumnKind(name string) ValueKind {
	switch {
	case name == s.TimestampColumn:
		return KindTime
	case textColumns[name], strings.HasSuffix(name, " Flag"):
		return KindText
	default:
		return KindNumber
	}
}

// DailySchema is the daily product (one row per calendar day).
var DailySchema = Schema{
	Kind:            Daily,
	TimestampColumn: "Date/Time",
	TimestampLayout: "2006-01-02",
	KeyColumn:       "Date/Time",
	IndexName:       "date",
	Step:            StepDay,
	Header: []string{
		"Longitude (x)", "Latitude (y)", "Station Name", "Climate ID", "Date/Time",
		"Year", "Month", "Day", "Data Quality",
		"Max Temp (°C)", "Max Temp Flag", "Min Temp (°C)", "Min Temp Flag",
		"Mean Temp (°C)", "Mean Temp Flag", "Heat Deg Days (°C)", "Heat Deg Days Flag",
		"Cool Deg Days (°C)", "Cool Deg Days Flag", "Total Rain (mm)", "Total Rain Flag",
		"Total Snow (cm)", "Total Snow Flag", "Total Precip (mm)", "Total Precip Flag",
		"Snow on Grnd (cm)", "Snow on Grnd Flag", "Dir of Max Gust (10s deg)",
		"Dir of Max Gust Flag", "Spd of Max Gust (km/h)", "Spd of Max Gust Flag",
	},
	DropColumns: []string{
		"Longitude (x)", "Latitude (y)", "Station Name", "Year", "Month", "Day",
		"Data Quality", "Max Temp Flag", "Min Temp Flag", "Mean Temp Flag",
		"Heat Deg Days Flag", "Cool Deg Days Flag", "Total Rain Flag",
		"Total Snow Flag", "Total Precip Flag", "Snow on Grnd Flag",
		"Dir of Max Gust Flag", "Spd of Max Gust Flag",
	},
}

// HourlySchema is the hourly product, timestamped in local standard time.
var HourlySchema = Schema{
	Kind:            Hourly,
	TimestampColumn: "Date/Time (LST)",
	TimestampLayout: "2006-01-02 15:04",
	KeyColumn:       "Date/Time",
	IndexName:       "Date/Time",
	Step:            StepHour,
	Header: []string{
		"Longitude (x)", "Latitude (y)", "Station Name", "Climate ID", "Date/Time (LST)",
		"Year", "Month", "Day", "Time (LST)",
		"Temp (°C)", "Temp Flag", "Dew Point Temp (°C)", "Dew Point Temp Flag",
		"Rel Hum (%)", "Rel Hum Flag", "Precip. Amount (mm)", "Precip. Amount Flag",
		"Wind Dir (10s deg)", "Wind Dir Flag", "Wind Spd (km/h)", "Wind Spd Flag",
		"Visibility (km)", "Visibility Flag", "Stn Press (kPa)", "Stn Press Flag",
		"Hmdx", "Hmdx Flag", "Wind Chill", "Wind Chill Flag", "Weather",
	},
	DropColumns: []string{
		"Longitude (x)", "Latitude (y)", "Station Name", "Year", "Month", "Day",
		"Temp Flag", "Dew Point Temp Flag", "Rel Hum Flag", "Precip. Amount (mm)",
		"Precip. Amount Flag", "Wind Dir Flag", "Visibility (km)", "Visibility Flag",
		"Stn Press Flag", "Hmdx", "Hmdx Flag", "Wind Chill", "Wind Chill Flag",
		"Weather", "Wind Dir (10s deg)", "Wind Spd (km/h)", "Wind Spd Flag",
		"Stn Press (kPa)", "Time (LST)", "Date/Time (LST)",
	},
}

// SchemaFor returns the schema of a data kind.
func SchemaFor(kind DataKind) (Schema, error) {
	switch kind {
	case Daily:
		return DailySchema, nil
	case Hourly:
		return HourlySchema, nil
	default:
		return Schema{}, fmt.Errorf("unknown data kind %q", kind)
	}
}
