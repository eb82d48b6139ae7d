package racestate

type SafetyCarStatus string

const (
	NoSafetyCar      SafetyCarStatus = "NO_SAFETY_CAR"
	FullSafetyCar    SafetyCarStatus = "FULL_SAFETY_CAR"
	VirtualSafetyCar SafetyCarStatus = "VIRTUAL_SAFETY_CAR"
	FormationLap     SafetyCarStatus = "FORMATION_LAP"
)

// IsRacing reports whether laps run under this status count as green-flag laps.
func (s SafetyCarStatus) IsRacing() bool {
	return s == NoSafetyCar || s == ""
}

type WeatherForecastSample struct {
	TimeOffset     int    `json:"timeOffset"` // minutes from now
	Weather        string `json:"weather"`
	TrackTemp      int    `json:"trackTemp"`
	AirTemp        int    `json:"airTemp"`
	RainPercentage int    `json:"rainPercentage"`
}

// GlobalData is replaced as a whole on every update.
type GlobalData struct {
	Circuit           string                  `json:"circuit"`
	EventType         string                  `json:"eventType"`
	TrackTemp         int                     `json:"trackTemp"`
	TotalLaps         int                     `json:"totalLaps"`
	SafetyCarStatus   SafetyCarStatus         `json:"safetyCarStatus"`
	IsSpectating      bool                    `json:"isSpectating"`
	SpectatorCarIndex int                     `json:"spectatorCarIndex"`
	WeatherForecast   []WeatherForecastSample `json:"weatherForecast"`
}

func (g GlobalData) clone() GlobalData {
	c := g
	if g.WeatherForecast != nil {
		c.WeatherForecast = append([]WeatherForecastSample(nil), g.WeatherForecast...)
	}
	return c
}

// GlobalsSnapshot pairs the globals with the player's current lap read in the
// same critical section.
type GlobalsSnapshot struct {
	Circuit          string                  `json:"circuit"`
	TrackTemp        int                     `json:"trackTemp"`
	EventType        string                  `json:"eventType"`
	TotalLaps        int                     `json:"totalLaps"`
	PlayerCurrentLap *int                    `json:"currentLap"`
	SafetyCarStatus  SafetyCarStatus         `json:"safetyCarStatus"`
	WeatherForecast  []WeatherForecastSample `json:"weatherForecastSamples"`
}
