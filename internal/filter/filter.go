package filter

import (
    "errors"
    "net/url"
    "strings"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
)

// Spec is the full filter an admin applies to the entry table.  The
// zero value constrains nothing.
type Spec struct {
    Search      string
    UserType    Constraint[model.UserType]
    PH          Constraint[PHBand]
    Reading     Constraint[ReadingBand]
    Temperature Constraint[TemperatureBand]
    Substance   Constraint[model.Substance]
    Time        Constraint[TimeBand]
}

// Match reports whether e satisfies every active predicate.
func (s Spec) Match(e model.Entry) bool {
    return s.matchesSearch(e) &&
        s.UserType.Admits(e.UserType) &&
        s.PH.Admits(ClassifyPH(e.PHLevel)) &&
        s.Reading.Admits(ClassifyReading(e.Conductivity)) &&
        s.Temperature.Admits(ClassifyTemperature(e.Temperature)) &&
        s.Substance.Admits(e.SubstanceDetected) &&
        s.Time.Admits(ClassifyTime(e.Time))
}

func (s Spec) matchesSearch(e model.Entry) bool {
    term := strings.ToLower(s.Search)
    if term == "" {
        return true
    }
    return strings.Contains(strings.ToLower(e.Name), term) ||
        strings.Contains(strings.ToLower(e.InstitutionName), term)
}

// Apply returns the entries that match s, in input order.  The input
// slice is never modified.
func (s Spec) Apply(entries []model.Entry) []model.Entry {
    out := make([]model.Entry, 0, len(entries))
    for _, e := range entries {
        if s.Match(e) {
            out = append(out, e)
        }
    }
    return out
}

// Query parameter names shared by ParseSpec and Values.
const (
    paramSearch      = "search"
    paramUserType    = "userType"
    paramPH          = "phRange"
    paramReading     = "conductivityRange"
    paramTemperature = "temperatureRange"
    paramSubstance   = "substanceDetected"
    paramTime        = "timeRange"
)

// ParseSpec builds a Spec from query parameters.  Missing parameters and
// the value "all" place no constraint.  Unknown values are reported
// together; the returned Spec ignores just the offending dimensions.
func ParseSpec(q url.Values) (Spec, error) {
    var (
        s    Spec
        errs []error
        err  error
    )
    s.Search = strings.TrimSpace(q.Get(paramSearch))
    if s.UserType, err = parseBand(paramUserType, q.Get(paramUserType), model.UserTypes...); err != nil {
        errs = append(errs, err)
    }
    if s.PH, err = parseBand(paramPH, q.Get(paramPH), Acidic, Neutral, Alkaline); err != nil {
        errs = append(errs, err)
    }
    if s.Reading, err = parseBand(paramReading, q.Get(paramReading), ReadingLow, ReadingMedium, ReadingHigh); err != nil {
        errs = append(errs, err)
    }
    if s.Temperature, err = parseBand(paramTemperature, q.Get(paramTemperature), TemperatureLow, TemperatureNormal, TemperatureHigh); err != nil {
        errs = append(errs, err)
    }
    if s.Substance, err = parseBand(paramSubstance, q.Get(paramSubstance), model.Substances...); err != nil {
        errs = append(errs, err)
    }
    if s.Time, err = parseBand(paramTime, q.Get(paramTime), TimeShort, TimeMedium, TimeLong); err != nil {
        errs = append(errs, err)
    }
    return s, errors.Join(errs...)
}

// Values encodes s back into query parameters, omitting inactive
// dimensions.  ParseSpec(s.Values()) yields s again.
func (s Spec) Values() url.Values {
    q := url.Values{}
    if s.Search != "" {
        q.Set(paramSearch, s.Search)
    }
    setBand(q, paramUserType, s.UserType)
    setBand(q, paramPH, s.PH)
    setBand(q, paramReading, s.Reading)
    setBand(q, paramTemperature, s.Temperature)
    setBand(q, paramSubstance, s.Substance)
    setBand(q, paramTime, s.Time)
    return q
}

// Key is a canonical string for s, usable as a cache key.
func (s Spec) Key() string { return s.Values().Encode() }

// Selected returns the raw form value for every dimension, "all" when
// inactive.  Views use it to mark the chosen options.
func (s Spec) Selected() map[string]string {
    out := map[string]string{paramSearch: s.Search}
    for _, name := range []string{paramUserType, paramPH, paramReading, paramTemperature, paramSubstance, paramTime} {
        out[name] = "all"
    }
    for name, vals := range s.Values() {
        if name != paramSearch && len(vals) > 0 {
            out[name] = vals[0]
        }
    }
    return out
}

func setBand[B ~string](q url.Values, name string, c Constraint[B]) {
    if b, ok := c.Band(); ok {
        q.Set(name, string(b))
    }
}

// Dimension describes one filter select for the views.
type Dimension struct {
    Param   string
    Label   string
    Options []Option
}

// Option is one choice of a Dimension.  Value "all" places no constraint.
type Option struct {
    Value string
    Label string
}

// Dimensions lists every select the dashboard offers, in display order.
func Dimensions() []Dimension {
    userTypes := []Option{{"all", "All User Types"}}
    for _, t := range model.UserTypes {
        userTypes = append(userTypes, Option{string(t), string(t)})
    }
    substances := []Option{{"all", "All Substances"}}
    for _, s := range model.Substances {
        substances = append(substances, Option{string(s), string(s)})
    }
    return []Dimension{
        {paramUserType, "User Type", userTypes},
        {paramPH, "pH Range", []Option{
            {"all", "All pH Ranges"},
            {string(Acidic), "Acidic (< 7)"},
            {string(Neutral), "Neutral (= 7)"},
            {string(Alkaline), "Alkaline (> 7)"},
        }},
        {paramReading, "Conductivity", []Option{
            {"all", "All Conductivity"},
            {string(ReadingLow), "Low (< 200)"},
            {string(ReadingMedium), "Medium (200-300)"},
            {string(ReadingHigh), "High (≥ 300)"},
        }},
        {paramTemperature, "Temperature", []Option{
            {"all", "All Temperatures"},
            {string(TemperatureLow), "Low (< 36.5°C)"},
            {string(TemperatureNormal), "Normal (36.5-37.5°C)"},
            {string(TemperatureHigh), "High (> 37.5°C)"},
        }},
        {paramSubstance, "Substance", substances},
        {paramTime, "Time", []Option{
            {"all", "All Times"},
            {string(TimeShort), "Short (< 30 min)"},
            {string(TimeMedium), "Medium (30-45 min)"},
            {string(TimeLong), "Long (≥ 45 min)"},
        }},
    }
}
