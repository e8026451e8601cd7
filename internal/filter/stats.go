package filter

import (
    "math"
    "sort"
    "time"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
)

// Stats are the headline numbers shown above the entry table.
type Stats struct {
    UniqueUsers        int           `json:"uniqueUsers"`
    DetectionRate      float64       `json:"detectionRate"`
    AverageTemperature float64       `json:"averageTemperature"`
    TotalSamples       int           `json:"totalSamples"`
    Monthly            []MonthBucket `json:"monthly"`
}

// MonthBucket counts the entries created in one calendar month, split
// by user type.  Total always equals the sum of Counts.
type MonthBucket struct {
    Month  time.Time              `json:"month"`
    Label  string                 `json:"label"`
    Counts map[model.UserType]int `json:"counts"`
    Total  int                    `json:"total"`
}

// Count returns the number of entries of type t in the bucket.
func (b MonthBucket) Count(t model.UserType) int { return b.Counts[t] }

// ComputeStats derives the dashboard statistics from entries.
func ComputeStats(entries []model.Entry) Stats {
    st := Stats{TotalSamples: len(entries), Monthly: MonthlyHistogram(entries)}
    if len(entries) == 0 {
        return st
    }
    names := make(map[string]struct{}, len(entries))
    detected := 0
    tempSum := 0.0
    for _, e := range entries {
        names[e.Name] = struct{}{}
        if e.SubstanceDetected != model.SubstanceNone {
            detected++
        }
        tempSum += e.Temperature
    }
    st.UniqueUsers = len(names)
    st.DetectionRate = float64(detected) / float64(len(entries)) * 100
    st.AverageTemperature = math.Round(tempSum/float64(len(entries))*10) / 10
    return st
}

// MonthlyHistogram groups entries by the UTC calendar month of CreatedAt
// and returns the buckets oldest first.
func MonthlyHistogram(entries []model.Entry) []MonthBucket {
    byMonth := map[time.Time]*MonthBucket{}
    for _, e := range entries {
        t := e.CreatedAt.UTC()
        month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
        b, ok := byMonth[month]
        if !ok {
            b = &MonthBucket{Month: month, Label: month.Format("Jan 2006"), Counts: map[model.UserType]int{}}
            byMonth[month] = b
        }
        b.Counts[e.UserType]++
        b.Total++
    }
    out := make([]MonthBucket, 0, len(byMonth))
    for _, b := range byMonth {
        out = append(out, *b)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
    return out
}

// Summary is the filtered view of a dataset.
type Summary struct {
    Visible []model.Entry `json:"data"`
    Stats   Stats         `json:"stats"`
}

// Summarize applies s to entries and computes stats over the result.
func Summarize(entries []model.Entry, s Spec) Summary {
    visible := s.Apply(entries)
    return Summary{Visible: visible, Stats: ComputeStats(visible)}
}
