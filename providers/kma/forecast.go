package kma

import "time"

// KST is the timezone the village forecast service publishes in
var KST = time.FixedZone("KST", 9*60*60)

// Operation is one of the village forecast service operations
type Operation struct {
	// Path is the operation name appended to the service base URL
	Path string
	// Rows is the numOfRows requested; large enough for one base time
	Rows int
	// Base returns base_date (YYYYMMDD) and base_time (HHMM) for a request at now
	Base func(now time.Time) (string, string)
}

var (
	// UltraShortNowcast observes the current hour. Data for HH00 is published
	// around HH40.
	UltraShortNowcast = Operation{Path: "getUltraSrtNcst", Rows: 10, Base: NowcastBase}

	// UltraShortForecast covers the next six hours. Data for HH00 (issued at HH30)
	// is published around HH45.
	UltraShortForecast = Operation{Path: "getUltraSrtFcst", Rows: 60, Base: UltraForecastBase}

	// VillageForecast is the short-term forecast. Only the 0200 issue carries
	// the whole day's TMN and TMX.
	VillageForecast = Operation{Path: "getVilageFcst", Rows: 1000, Base: VillageForecastBase}
)

// NowcastBase returns the base date and hour of now minus 40 minutes, in KST
func NowcastBase(now time.Time) (string, string) {
	return hourBase(now.In(KST).Add(-40 * time.Minute))
}

// UltraForecastBase returns the base date and hour of now minus 45 minutes, in KST
func UltraForecastBase(now time.Time) (string, string) {
	return hourBase(now.In(KST).Add(-45 * time.Minute))
}

// VillageForecastBase returns today's 0200 issue, or yesterday's 2300 issue before
// 02:00 KST
func VillageForecastBase(now time.Time) (string, string) {
	t := now.In(KST)
	if t.Hour() < 2 {
		return t.AddDate(0, 0, -1).Format("20060102"), "2300"
	}
	return t.Format("20060102"), "0200"
}

func hourBase(t time.Time) (string, string) {
	return t.Format("20060102"), t.Format("15") + "00"
}
