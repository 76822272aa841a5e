// Package domain models Environment and Climate Change Canada (ECCC) climate
// station observations and the transforms that turn a station's bulk-download
// files into one regular time series.
//
// # Data Source
//
// Observations are published as CSV files in a bulk-download directory, one
// directory per province and granularity:
//
//	https://dd.weather.gc.ca/climate/observations/daily/csv/NS/
//	https://dd.weather.gc.ca/climate/observations/hourly/csv/NS/
//
// Each file holds one station and one period (a year for daily data, a month
// for hourly data). The station identifier appears in the filename, e.g.
// "climate_daily_NS_8202251_2019_P1D.csv".
//
// # ECCC Data Conventions
//
// Encoding:
//
//	Files are Latin-1 (ISO-8859-1). Column names carry degree signs, e.g.
//	"Max Temp (°C)", so decoding must happen before header matching.
//
// Timestamps:
//
//	Daily:  "Date/Time" as "2006-01-02". A calendar date with no zone.
//	Hourly: "Date/Time (LST)" as "2006-01-02 15:04". Local civil time.
//
// Civil times are carried as time.Time values in the UTC location with the
// wall-clock fields exactly as written. Only the time-zone normalizer assigns
// them a real instant.
//
// Values:
//
//	Empty cells are missing. Measurement columns are numeric but may carry
//	qualifiers such as "<31" in "Spd of Max Gust (km/h)"; those cells are kept
//	verbatim as text rather than discarded. Flag columns hold single letters
//	("M" missing, "E" estimated, "T" trace) and are always text.
//
// # Transform Stages
//
//	ParseTable          raw CSV records -> Table (typed, timestamp parsed)
//	Merge               many Tables -> one Table sorted by timestamp
//	NormalizeTimeZone   local civil time -> UTC instant (hourly only)
//	Prune               drop configured columns
//	Regularize          Table -> Grid with one row per step, gaps as null rows
//	RollupDaily         hourly Grid -> daily Grid (optional)
//	ValidateGrid        confirm no gaps remain
//	DateRangeLabel      first and last grid dates for the artifact name
//
// All functions in this package are pure: no I/O, no logging, no clock.
package domain
