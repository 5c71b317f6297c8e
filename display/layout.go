package display

// Element IDs used by the clock page
const (
	HoursTens      = "hours-tens"
	HoursOnes      = "hours-ones"
	MinutesTens    = "minutes-tens"
	MinutesOnes    = "minutes-ones"
	SecondHand     = "second-hand"
	Date           = "date"
	CurrentTemp    = "current-temp"
	Humidity       = "humidity"
	MinMaxTemp     = "min-max-temp"
	WeatherStatus  = "weather-status"
	FineDust       = "fine-dust"
	backFaceSuffix = "-new"
	flipCardSuffix = "-card"
)

// BackFace returns the ID of the hidden face of a flip digit
func BackFace(front string) string {
	return front + backFaceSuffix
}

// FlipCard returns the ID of the card containing a flip digit
func FlipCard(front string) string {
	return front + flipCardSuffix
}

// DigitIDs lists the four flip digits in display order
func DigitIDs() []string {
	return []string{HoursTens, HoursOnes, MinutesTens, MinutesOnes}
}

// DefaultLayout returns every element ID the clock page defines
func DefaultLayout() []string {
	ids := []string{SecondHand, Date, CurrentTemp, Humidity, MinMaxTemp, WeatherStatus, FineDust}
	for _, d := range DigitIDs() {
		ids = append(ids, d, BackFace(d), FlipCard(d))
	}
	return ids
}

// NewDefaultBoard creates a board with the full clock page layout
func NewDefaultBoard() *Board {
	return NewBoard(DefaultLayout()...)
}
