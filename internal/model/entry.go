package model

import (
    "encoding/json"
    "time"
)

// UserType classifies the person a sample was taken from.
type UserType string

const (
    NonUser     UserType = "Non-user"
    RegularUser UserType = "Regular User"
    Addict      UserType = "Addict"
)

// UserTypes lists the categories in display order.
var UserTypes = []UserType{NonUser, RegularUser, Addict}

// Valid reports whether t is one of the known categories.
func (t UserType) Valid() bool {
    for _, u := range UserTypes {
        if u == t {
            return true
        }
    }
    return false
}

// Substance is the label the detector assigned to a sample.
type Substance string

const (
    SubstanceNicotine Substance = "Nicotine"
    SubstanceNone     Substance = "None"
)

// Substances lists the labels in display order.
var Substances = []Substance{SubstanceNone, SubstanceNicotine}

// Valid reports whether s is a known label.
func (s Substance) Valid() bool {
    return s == SubstanceNicotine || s == SubstanceNone
}

// Entry represents one recorded tobacco detection sample as returned by
// the remote API.  Entries are immutable once recorded; the dashboard
// only reads them.
//
// Fields:
//  ID                – identifier assigned by the API.
//  InstitutionName   – institution where the sample was taken.
//  RollNumber        – roll number of the person sampled.
//  Name              – name of the person sampled.
//  UserType          – Non-user, Regular User or Addict.
//  Time              – elapsed measurement time in minutes (0–60).
//  PHLevel           – pH of the sample (0–14).
//  Conductivity      – secondary sensor reading in µS/cm.
//  Temperature       – sample temperature in °C.
//  SubstanceDetected – Nicotine or None.
//  CreatedAt         – when the API recorded the entry.
//  CreatedBy         – id of the data-entry user, when known.
type Entry struct {
    ID                string    `json:"id"`
    InstitutionName   string    `json:"institutionName"`
    RollNumber        string    `json:"rollNumber"`
    Name              string    `json:"name"`
    UserType          UserType  `json:"userType"`
    Time              float64   `json:"time"`
    PHLevel           float64   `json:"phLevel"`
    Conductivity      float64   `json:"conductivity"`
    Temperature       float64   `json:"temperature"`
    SubstanceDetected Substance `json:"substanceDetected"`
    CreatedAt         time.Time `json:"createdAt"`
    CreatedBy         string    `json:"createdBy,omitempty"`
}

// entryWire accepts every field spelling the API has used over time.
type entryWire struct {
    MongoID           string          `json:"_id"`
    ID                string          `json:"id"`
    InstitutionName   string          `json:"institutionName"`
    Institution       string          `json:"institution"`
    RollNumber        string          `json:"rollNumber"`
    Name              string          `json:"name"`
    UserType          UserType        `json:"userType"`
    Time              *float64        `json:"time"`
    PHLevel           *float64        `json:"phLevel"`
    PH                *float64        `json:"pH"`
    Conductivity      *float64        `json:"conductivity"`
    NicotineLevel     *float64        `json:"nicotineLevel"`
    Temperature       *float64        `json:"temperature"`
    SubstanceDetected Substance       `json:"substanceDetected"`
    CreatedAt         time.Time       `json:"createdAt"`
    CreatedBy         json.RawMessage `json:"createdBy"`
}

// UnmarshalJSON decodes an entry from any of the API's payload shapes.
func (e *Entry) UnmarshalJSON(b []byte) error {
    var w entryWire
    if err := json.Unmarshal(b, &w); err != nil {
        return err
    }
    *e = Entry{
        ID:                firstNonEmpty(w.MongoID, w.ID),
        InstitutionName:   firstNonEmpty(w.InstitutionName, w.Institution),
        RollNumber:        w.RollNumber,
        Name:              w.Name,
        UserType:          w.UserType,
        Time:              firstNumber(w.Time),
        PHLevel:           firstNumber(w.PHLevel, w.PH),
        Conductivity:      firstNumber(w.Conductivity, w.NicotineLevel),
        Temperature:       firstNumber(w.Temperature),
        SubstanceDetected: w.SubstanceDetected,
        CreatedAt:         w.CreatedAt,
        CreatedBy:         creatorID(w.CreatedBy),
    }
    return nil
}

// creatorID accepts either a bare id string or a populated user object.
func creatorID(raw json.RawMessage) string {
    if len(raw) == 0 || string(raw) == "null" {
        return ""
    }
    var s string
    if err := json.Unmarshal(raw, &s); err == nil {
        return s
    }
    var obj struct {
        MongoID string `json:"_id"`
        ID      string `json:"id"`
    }
    if err := json.Unmarshal(raw, &obj); err == nil {
        return firstNonEmpty(obj.MongoID, obj.ID)
    }
    return ""
}

func firstNonEmpty(vals ...string) string {
    for _, v := range vals {
        if v != "" {
            return v
        }
    }
    return ""
}

func firstNumber(vals ...*float64) float64 {
    for _, v := range vals {
        if v != nil {
            return *v
        }
    }
    return 0
}

// NewEntry is the payload POSTed to /data/entry.  It carries no id or
// timestamp; the API assigns both.
type NewEntry struct {
    InstitutionName   string    `json:"institutionName"`
    RollNumber        string    `json:"rollNumber"`
    Name              string    `json:"name"`
    UserType          UserType  `json:"userType"`
    Time              float64   `json:"time"`
    PHLevel           float64   `json:"phLevel"`
    Conductivity      float64   `json:"conductivity"`
    Temperature       float64   `json:"temperature"`
    SubstanceDetected Substance `json:"substanceDetected"`
}
