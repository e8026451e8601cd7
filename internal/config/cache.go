package config

import "time"

// DatasetConfig controls the per-session entry cache.  A snapshot older
// than MaxAge is refetched on the next dashboard visit; zero keeps a
// snapshot until the user asks for a refresh.
type DatasetConfig struct {
    MaxAge time.Duration
}

// LoadDatasetConfig reads DATASET_MAX_AGE (default 5m).
func LoadDatasetConfig() DatasetConfig {
    d := DatasetConfig{MaxAge: envDur("DATASET_MAX_AGE", 5*time.Minute)}
    if d.MaxAge < 0 {
        d.MaxAge = 0
    }
    return d
}
