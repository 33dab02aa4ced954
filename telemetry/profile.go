package telemetry

// Profile describes the physical quantity a sensor simulates and the
// nominal range its values fall in.
type Profile struct {
	Name string
	Unit string
	Min  float64
	Max  float64
}

// RangeMargin is how far outside a profile's nominal range a value may
// fall before it is considered implausible. A temperature sensor with a
// 20-30 range warns below 19 or above 31.
const RangeMargin = 1.0

var (
	// Temperature is the profile for sensor id 0 (degrees Celsius).
	Temperature = Profile{Name: "Temperature", Unit: "°C", Min: 20.0, Max: 30.0}

	// Pressure is the profile for sensor id 1 (hectopascals).
	Pressure = Profile{Name: "Pressure", Unit: "hPa", Min: 1000.0, Max: 1020.0}

	// Humidity is the profile for sensor id 2 (percent relative humidity).
	Humidity = Profile{Name: "Humidity", Unit: "%", Min: 40.0, Max: 60.0}

	// Generic is the profile for any other sensor id.
	Generic = Profile{Name: "Generic", Unit: "", Min: 0.0, Max: 100.0}
)

// ProfileFor returns the profile assigned to a sensor id. Ids beyond the
// three well-known sensors get the Generic profile.
func ProfileFor(sourceID int) Profile {
	switch sourceID {
	case 0:
		return Temperature
	case 1:
		return Pressure
	case 2:
		return Humidity
	default:
		return Generic
	}
}

// InPlausibleRange reports whether a value falls within the profile's
// nominal range extended by RangeMargin on both sides.
func (p Profile) InPlausibleRange(value float64) bool {
	return value >= p.Min-RangeMargin && value <= p.Max+RangeMargin
}
