package panel

// SkyStatus is the single weather word shown on the panel
type SkyStatus int

const (
	SkyClear SkyStatus = iota
	SkyMostlyCloudy
	SkyOvercast
	SkyRain
	SkyRainSnow
	SkySnow
	SkyShower
	SkyDrizzle
	SkySleet
	SkyBlowingSnow
	SkyPrecipitation
)

var skyLabels = map[SkyStatus]string{
	SkyClear:         "맑음",
	SkyMostlyCloudy:  "구름많음",
	SkyOvercast:      "흐림",
	SkyRain:          "비",
	SkyRainSnow:      "비/눈",
	SkySnow:          "눈",
	SkyShower:        "소나기",
	SkyDrizzle:       "빗방울",
	SkySleet:         "진눈깨비",
	SkyBlowingSnow:   "눈날림",
	SkyPrecipitation: "강수",
}

// Label returns the Korean display text
func (s SkyStatus) Label() string {
	if l, ok := skyLabels[s]; ok {
		return l
	}
	return skyLabels[SkyClear]
}

func (s SkyStatus) String() string {
	return s.Label()
}

// PTY codes of the KMA precipitation type category
var precipitationCodes = map[string]SkyStatus{
	"1": SkyRain,
	"2": SkyRainSnow,
	"3": SkySnow,
	"4": SkyShower,
	"5": SkyDrizzle,
	"6": SkySleet,
	"7": SkyBlowingSnow,
}

// SKY codes of the KMA sky cover category
var skyCodes = map[string]SkyStatus{
	"1": SkyClear,
	"3": SkyMostlyCloudy,
	"4": SkyOvercast,
}

// PrecipitationStatus maps a non-zero PTY code. Unknown codes read as generic
// precipitation.
func PrecipitationStatus(code string) SkyStatus {
	if s, ok := precipitationCodes[code]; ok {
		return s
	}
	return SkyPrecipitation
}

// SkyCoverStatus maps a SKY code. Unknown codes read as clear.
func SkyCoverStatus(code string) SkyStatus {
	if s, ok := skyCodes[code]; ok {
		return s
	}
	return SkyClear
}

// DustGrade is the AirKorea PM10 grade
type DustGrade int

const (
	DustUnknown DustGrade = iota
	DustGood
	DustModerate
	DustBad
	DustVeryBad
)

type dustStyle struct {
	label string
	color string
}

var dustStyles = map[DustGrade]dustStyle{
	DustUnknown:  {"정보없음", "#2d5016"},
	DustGood:     {"좋음", "#3498db"},
	DustModerate: {"보통", "#27ae60"},
	DustBad:      {"나쁨", "#f39c12"},
	DustVeryBad:  {"매우나쁨", "#e74c3c"},
}

var dustCodes = map[string]DustGrade{
	"1": DustGood,
	"2": DustModerate,
	"3": DustBad,
	"4": DustVeryBad,
}

// DustGradeOf maps a pm10Grade code; anything other than 1-4 is unknown
func DustGradeOf(code string) DustGrade {
	if g, ok := dustCodes[code]; ok {
		return g
	}
	return DustUnknown
}

// Label returns the Korean grade text
func (g DustGrade) Label() string {
	return dustStyles[g.normalized()].label
}

// Color returns the display color of the grade
func (g DustGrade) Color() string {
	return dustStyles[g.normalized()].color
}

func (g DustGrade) String() string {
	return g.Label()
}

func (g DustGrade) normalized() DustGrade {
	if _, ok := dustStyles[g]; ok {
		return g
	}
	return DustUnknown
}
