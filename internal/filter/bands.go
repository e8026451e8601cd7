package filter

import "fmt"

// PHBand splits pH readings at neutral.
type PHBand string

const (
    Acidic   PHBand = "acidic"   // pH < 7
    Neutral  PHBand = "neutral"  // pH == 7
    Alkaline PHBand = "alkaline" // pH > 7
)

// ClassifyPH returns the band a pH reading falls in.
func ClassifyPH(ph float64) PHBand {
    switch {
    case ph < 7:
        return Acidic
    case ph > 7:
        return Alkaline
    default:
        return Neutral
    }
}

// ReadingBand splits the secondary sensor reading (conductivity).
type ReadingBand string

const (
    ReadingLow    ReadingBand = "low"    // < 200
    ReadingMedium ReadingBand = "medium" // [200, 300)
    ReadingHigh   ReadingBand = "high"   // >= 300
)

// ClassifyReading returns the band a conductivity reading falls in.
func ClassifyReading(v float64) ReadingBand {
    switch {
    case v < 200:
        return ReadingLow
    case v < 300:
        return ReadingMedium
    default:
        return ReadingHigh
    }
}

// TemperatureBand splits body temperature around the normal range.
type TemperatureBand string

const (
    TemperatureLow    TemperatureBand = "low"    // < 36.5
    TemperatureNormal TemperatureBand = "normal" // [36.5, 37.5]
    TemperatureHigh   TemperatureBand = "high"   // > 37.5
)

// ClassifyTemperature returns the band a temperature falls in.  Both
// ends of the normal range are inclusive.
func ClassifyTemperature(v float64) TemperatureBand {
    switch {
    case v < 36.5:
        return TemperatureLow
    case v > 37.5:
        return TemperatureHigh
    default:
        return TemperatureNormal
    }
}

// TimeBand splits the measurement time in minutes.
type TimeBand string

const (
    TimeShort  TimeBand = "short"  // < 30
    TimeMedium TimeBand = "medium" // [30, 45)
    TimeLong   TimeBand = "long"   // >= 45
)

// ClassifyTime returns the band a measurement time falls in.
func ClassifyTime(mins float64) TimeBand {
    switch {
    case mins < 30:
        return TimeShort
    case mins < 45:
        return TimeMedium
    default:
        return TimeLong
    }
}

// parseBand resolves raw against the allowed bands.  "" and "all" mean
// no constraint.
func parseBand[B ~string](field, raw string, allowed ...B) (Constraint[B], error) {
    if raw == "" || raw == "all" {
        return Any[B](), nil
    }
    for _, b := range allowed {
        if string(b) == raw {
            return Only(b), nil
        }
    }
    return Any[B](), fmt.Errorf("%s: unknown value %q", field, raw)
}
