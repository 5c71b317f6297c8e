package panel

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"flipclock/display"
)

// placeholder stands in for a temperature or humidity the payload did not provide
const placeholder = "--"

// Snapshot is what one payload resolves to. A nil field was not resolved and leaves
// the displayed value as it is.
type Snapshot struct {
	Temperature *int
	Humidity    *int
	// HumidityUnknown is set when the observation was present but had no humidity
	HumidityUnknown bool

	MinTemp *int
	MaxTemp *int
	// MinMaxResolved is set when at least one of MinTemp and MaxTemp was found
	MinMaxResolved bool

	Sky  *SkyStatus
	Dust *DustGrade

	// Problems holds the sub-steps that failed, by name
	Problems map[string]error
}

// Project resolves a payload into display values as seen at now. The four sub-steps
// run independently; a failure in one is recorded in Problems and does not stop the
// others.
func Project(p Payload, now time.Time) Snapshot {
	var snap Snapshot
	if p.Empty() {
		return snap
	}

	today := now.Format("20060102")
	hour := now.Format("15") + "00"

	guard(&snap, "temperature", func() { projectTemperature(&snap, p, hour) })
	guard(&snap, "min-max", func() { projectMinMax(&snap, p, today) })
	guard(&snap, "status", func() { projectStatus(&snap, p, today, hour) })
	guard(&snap, "dust", func() { projectDust(&snap, p) })
	return snap
}

func guard(snap *Snapshot, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if snap.Problems == nil {
				snap.Problems = make(map[string]error)
			}
			snap.Problems[step] = fmt.Errorf("%s projection panicked: %v", step, r)
		}
	}()
	fn()
}

func projectTemperature(snap *Snapshot, p Payload, hour string) {
	if t, ok := roundedOf(p.NCST.Value("T1H")); ok {
		snap.Temperature = &t
	} else if t, ok := roundedOf(p.UltraForecast.ValueAt("T1H", hour)); ok {
		snap.Temperature = &t
	}

	if h, ok := roundedOf(p.NCST.Value("REH")); ok {
		snap.Humidity = &h
	} else if h, ok := roundedOf(p.UltraForecast.ValueAt("REH", hour)); ok {
		snap.Humidity = &h
	} else if p.NCST.Present() {
		snap.HumidityUnknown = true
	}
}

func projectMinMax(snap *Snapshot, p Payload, today string) {
	if !p.Forecast.Present() {
		return
	}
	for _, it := range p.Forecast.Items {
		if d, _ := it.String("fcstDate"); d != today {
			continue
		}
		category, _ := it.String("category")
		v, ok := roundedOf(it.String("fcstValue"))
		if !ok {
			continue
		}
		switch category {
		case "TMN":
			snap.MinTemp = &v
		case "TMX":
			snap.MaxTemp = &v
		}
	}
	snap.MinMaxResolved = snap.MinTemp != nil || snap.MaxTemp != nil
}

// projectStatus prefers precipitation over sky cover. Sources are tried from the most
// time-accurate to the least: observation, ultra-short forecast, short forecast.
func projectStatus(snap *Snapshot, p Payload, today, hour string) {
	pty, hasPTY := p.NCST.Value("PTY")
	if !hasPTY {
		pty, hasPTY = p.UltraForecast.ValueAt("PTY", hour)
	}
	if hasPTY && pty != "0" {
		s := PrecipitationStatus(pty)
		snap.Sky = &s
		return
	}

	sky, hasSky := p.UltraForecast.ValueAt("SKY", hour)
	if !hasSky {
		sky, hasSky = p.Forecast.ValueOn("SKY", today, hour)
	}
	if hasSky {
		s := SkyCoverStatus(sky)
		snap.Sky = &s
		return
	}

	// no precipitation was reported and no source described the sky
	if hasPTY {
		s := SkyClear
		snap.Sky = &s
	}
}

func projectDust(snap *Snapshot, p Payload) {
	g := DustUnknown
	if code, ok := p.Pollution.First("pm10Grade"); ok {
		g = DustGradeOf(code)
	}
	snap.Dust = &g
}

func roundedOf(v string, ok bool) (int, bool) {
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// halves round up: 2.5 -> 3, -0.5 -> 0
	return int(math.Floor(f + 0.5)), true
}

// FormatTemperature renders a temperature as "23°"
func FormatTemperature(t int) string {
	return strconv.Itoa(t) + "°"
}

// FormatHumidity renders "습도 45%", or "습도 --%" when unknown
func FormatHumidity(h *int) string {
	if h == nil {
		return "습도 " + placeholder + "%"
	}
	return fmt.Sprintf("습도 %d%%", *h)
}

// FormatMinMax renders "12° / 24°" with "--" for a missing side
func FormatMinMax(minTemp, maxTemp *int) string {
	side := func(v *int) string {
		if v == nil {
			return placeholder
		}
		return strconv.Itoa(*v)
	}
	return fmt.Sprintf("%s° / %s°", side(minTemp), side(maxTemp))
}

// FormatDust renders "미세먼지 좋음"
func FormatDust(g DustGrade) string {
	return "미세먼지 " + g.Label()
}

// Apply writes the resolved parts of a snapshot to the surface. Unresolved fields and
// missing elements are left alone.
func Apply(surface display.Surface, snap Snapshot) {
	if snap.Temperature != nil {
		surface.SetText(display.CurrentTemp, FormatTemperature(*snap.Temperature))
	}
	if snap.Humidity != nil || snap.HumidityUnknown {
		surface.SetText(display.Humidity, FormatHumidity(snap.Humidity))
	}
	if snap.MinMaxResolved {
		surface.SetText(display.MinMaxTemp, FormatMinMax(snap.MinTemp, snap.MaxTemp))
	}
	if snap.Sky != nil {
		surface.SetText(display.WeatherStatus, snap.Sky.Label())
	}
	if snap.Dust != nil {
		surface.SetText(display.FineDust, FormatDust(*snap.Dust))
		surface.SetStyle(display.FineDust, "color", snap.Dust.Color())
	}
}
