package filter

import (
    "net/url"
    "reflect"
    "testing"
    "time"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
)

func sampleEntries() []model.Entry {
    return []model.Entry{
        {ID: "1", InstitutionName: "Medical Center A", Name: "John Doe", UserType: model.RegularUser, Time: 30, PHLevel: 7.2, Conductivity: 250, Temperature: 37, SubstanceDetected: model.SubstanceNicotine,
            CreatedAt: time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)},
        {ID: "2", InstitutionName: "Hospital B", Name: "Jane Smith", UserType: model.NonUser, Time: 25, PHLevel: 6.8, Conductivity: 180, Temperature: 36.5, SubstanceDetected: model.SubstanceNone,
            CreatedAt: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)},
        {ID: "3", InstitutionName: "Research Lab C", Name: "Mike Johnson", UserType: model.Addict, Time: 45, PHLevel: 7.5, Conductivity: 300, Temperature: 37.2, SubstanceDetected: model.SubstanceNicotine,
            CreatedAt: time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC)},
        {ID: "4", InstitutionName: "Hospital B", Name: "John Doe", UserType: model.RegularUser, Time: 50, PHLevel: 7.0, Conductivity: 200, Temperature: 38.1, SubstanceDetected: model.SubstanceNicotine,
            CreatedAt: time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)},
    }
}

func ids(entries []model.Entry) []string {
    out := make([]string, 0, len(entries))
    for _, e := range entries {
        out = append(out, e.ID)
    }
    return out
}

func TestEmptySpecReturnsAllInOrder(t *testing.T) {
    entries := sampleEntries()
    got := Spec{}.Apply(entries)
    if !reflect.DeepEqual(got, entries) {
        t.Fatalf("expected unchanged list, got %v", ids(got))
    }

    parsed, err := ParseSpec(url.Values{
        "userType": {"all"}, "phRange": {"all"}, "conductivityRange": {"all"},
        "temperatureRange": {"all"}, "substanceDetected": {"all"}, "timeRange": {"all"}, "search": {""},
    })
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if !reflect.DeepEqual(parsed.Apply(entries), entries) {
        t.Fatalf("explicit all-spec should pass everything")
    }
}

func TestPHAcidicScenario(t *testing.T) {
    entries := []model.Entry{{ID: "a", PHLevel: 6.8}, {ID: "b", PHLevel: 7.0}, {ID: "c", PHLevel: 7.5}}
    got := Spec{PH: Only(Acidic)}.Apply(entries)
    if !reflect.DeepEqual(ids(got), []string{"a"}) {
        t.Fatalf("expected only pH 6.8, got %v", ids(got))
    }
}

func TestBandBoundaries(t *testing.T) {
    phCases := map[float64]PHBand{6.99: Acidic, 7: Neutral, 7.01: Alkaline}
    for v, want := range phCases {
        if got := ClassifyPH(v); got != want {
            t.Fatalf("ClassifyPH(%v) = %s, want %s", v, got, want)
        }
    }
    readingCases := map[float64]ReadingBand{199.9: ReadingLow, 200: ReadingMedium, 299.9: ReadingMedium, 300: ReadingHigh}
    for v, want := range readingCases {
        if got := ClassifyReading(v); got != want {
            t.Fatalf("ClassifyReading(%v) = %s, want %s", v, got, want)
        }
    }
    tempCases := map[float64]TemperatureBand{36.4: TemperatureLow, 36.5: TemperatureNormal, 37.5: TemperatureNormal, 37.6: TemperatureHigh}
    for v, want := range tempCases {
        if got := ClassifyTemperature(v); got != want {
            t.Fatalf("ClassifyTemperature(%v) = %s, want %s", v, got, want)
        }
    }
    timeCases := map[float64]TimeBand{29.9: TimeShort, 30: TimeMedium, 44.9: TimeMedium, 45: TimeLong}
    for v, want := range timeCases {
        if got := ClassifyTime(v); got != want {
            t.Fatalf("ClassifyTime(%v) = %s, want %s", v, got, want)
        }
    }
}

func TestBandsPartitionEntries(t *testing.T) {
    entries := sampleEntries()
    total := 0
    for _, b := range []PHBand{Acidic, Neutral, Alkaline} {
        total += len(Spec{PH: Only(b)}.Apply(entries))
    }
    if total != len(entries) {
        t.Fatalf("pH bands overlap or leave gaps: %d of %d", total, len(entries))
    }
    total = 0
    for _, b := range []TimeBand{TimeShort, TimeMedium, TimeLong} {
        total += len(Spec{Time: Only(b)}.Apply(entries))
    }
    if total != len(entries) {
        t.Fatalf("time bands overlap or leave gaps: %d of %d", total, len(entries))
    }
}

func TestSearchMatchesNameOrInstitution(t *testing.T) {
    entries := sampleEntries()
    if got := ids(Spec{Search: "hospital"}.Apply(entries)); !reflect.DeepEqual(got, []string{"2", "4"}) {
        t.Fatalf("institution search got %v", got)
    }
    if got := ids(Spec{Search: "JOHN"}.Apply(entries)); !reflect.DeepEqual(got, []string{"1", "3", "4"}) {
        t.Fatalf("name search got %v", got)
    }
}

func TestConjunctionIncludesSubstanceAndTime(t *testing.T) {
    entries := sampleEntries()
    s := Spec{UserType: Only(model.RegularUser), Substance: Only(model.SubstanceNicotine), Time: Only(TimeLong)}
    if got := ids(s.Apply(entries)); !reflect.DeepEqual(got, []string{"4"}) {
        t.Fatalf("expected only entry 4, got %v", got)
    }
    s.Substance = Only(model.SubstanceNone)
    if got := s.Apply(entries); len(got) != 0 {
        t.Fatalf("substance predicate ignored, got %v", ids(got))
    }
}

func TestParseSpecRoundTripAndErrors(t *testing.T) {
    want := Spec{Search: "doe", PH: Only(Neutral), Temperature: Only(TemperatureHigh), Substance: Only(model.SubstanceNicotine)}
    got, err := ParseSpec(want.Values())
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if got != want {
        t.Fatalf("round trip mismatch: %+v vs %+v", got, want)
    }
    if _, err := ParseSpec(url.Values{"phRange": {"sour"}, "timeRange": {"eternal"}}); err == nil {
        t.Fatalf("expected unknown bands to be rejected")
    }
    sel := want.Selected()
    if sel["phRange"] != "neutral" || sel["timeRange"] != "all" {
        t.Fatalf("unexpected selection %v", sel)
    }
}

func TestStats(t *testing.T) {
    st := ComputeStats(sampleEntries())
    if st.TotalSamples != 4 || st.UniqueUsers != 3 {
        t.Fatalf("unexpected counts %+v", st)
    }
    if st.DetectionRate != 75 {
        t.Fatalf("expected 75%% detection, got %v", st.DetectionRate)
    }
    // (37 + 36.5 + 37.2 + 38.1) / 4 = 37.2
    if st.AverageTemperature != 37.2 {
        t.Fatalf("expected 37.2 average, got %v", st.AverageTemperature)
    }
    if empty := ComputeStats(nil); empty.DetectionRate != 0 || empty.TotalSamples != 0 {
        t.Fatalf("unexpected stats for empty input %+v", empty)
    }
}

func TestDetectionRateIsStable(t *testing.T) {
    entries := sampleEntries()
    s := Spec{Reading: Only(ReadingMedium)}
    first := Summarize(entries, s)
    second := Summarize(entries, s)
    if !reflect.DeepEqual(first, second) {
        t.Fatalf("summaries differ across identical calls")
    }
}

func TestMonthlyHistogram(t *testing.T) {
    buckets := MonthlyHistogram(sampleEntries())
    labels := make([]string, 0, len(buckets))
    for _, b := range buckets {
        labels = append(labels, b.Label)
        sum := 0
        for _, n := range b.Counts {
            sum += n
        }
        if sum != b.Total {
            t.Fatalf("bucket %s counts %d but total %d", b.Label, sum, b.Total)
        }
    }
    if !reflect.DeepEqual(labels, []string{"Dec 2023", "Jan 2024", "Feb 2024"}) {
        t.Fatalf("unexpected bucket order %v", labels)
    }
    feb := buckets[2]
    if feb.Count(model.RegularUser) != 1 || feb.Count(model.Addict) != 1 || feb.Total != 2 {
        t.Fatalf("unexpected February bucket %+v", feb)
    }
}

func TestEveryDimensionOptionParses(t *testing.T) {
    for _, d := range Dimensions() {
        for _, o := range d.Options {
            s, err := ParseSpec(url.Values{d.Param: {o.Value}})
            if err != nil {
                t.Fatalf("%s=%s: %v", d.Param, o.Value, err)
            }
            if got := s.Selected()[d.Param]; got != o.Value {
                t.Fatalf("%s=%s selected as %q", d.Param, o.Value, got)
            }
        }
    }
}
