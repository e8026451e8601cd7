package validation

import (
    "strings"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
)

// EntryForm is the raw data-entry form as submitted.
type EntryForm struct {
    InstitutionName   string `form:"institutionName"`
    RollNumber        string `form:"rollNumber"`
    Name              string `form:"name"`
    UserType          string `form:"userType"`
    Time              string `form:"time"`
    PHLevel           string `form:"phLevel"`
    Conductivity      string `form:"conductivity"`
    Temperature       string `form:"temperature"`
    SubstanceDetected string `form:"substanceDetected"`
}

// DefaultEntryForm is what a fresh or just-submitted form shows.
func DefaultEntryForm() EntryForm {
    return EntryForm{
        UserType:          string(model.NonUser),
        Time:              "30",
        PHLevel:           "7",
        Conductivity:      "200",
        Temperature:       "37",
        SubstanceDetected: string(model.SubstanceNone),
    }
}

// Institutions are offered as suggestions on the entry form.
var Institutions = []string{
    "Medical Center A",
    "Hospital B",
    "Research Lab C",
    "University Medical Center",
    "City Hospital",
}

// ValidateEntry checks f and, when it passes, returns the payload to
// submit.  The payload is only meaningful if the validator has no errors.
func ValidateEntry(f EntryForm) (model.NewEntry, *Validator) {
    v := NewValidator()
    e := model.NewEntry{
        InstitutionName:   strings.TrimSpace(f.InstitutionName),
        RollNumber:        strings.TrimSpace(f.RollNumber),
        Name:              strings.TrimSpace(f.Name),
        UserType:          model.UserType(f.UserType),
        SubstanceDetected: model.Substance(f.SubstanceDetected),
    }

    v.Required("institutionName", "Institution name", e.InstitutionName).
        MaxLength("institutionName", "Institution name", e.InstitutionName, 255)
    v.Required("rollNumber", "Roll number", e.RollNumber).
        MaxLength("rollNumber", "Roll number", e.RollNumber, 64)
    v.Required("name", "Name", e.Name).
        MaxLength("name", "Name", e.Name, 255)
    v.OneOf("userType", "User type", f.UserType, userTypeNames()...)

    v.Number("time", "Time", f.Time, &e.Time).
        Range("time", "Time", e.Time, 0, 60)
    v.Number("phLevel", "pH level", f.PHLevel, &e.PHLevel).
        Range("phLevel", "pH level", e.PHLevel, 0, 14)
    v.Number("conductivity", "Conductivity", f.Conductivity, &e.Conductivity).
        Min("conductivity", "Conductivity", e.Conductivity, 0)
    v.Number("temperature", "Temperature", f.Temperature, &e.Temperature).
        Min("temperature", "Temperature", e.Temperature, 0)

    v.OneOf("substanceDetected", "Substance", f.SubstanceDetected,
        string(model.SubstanceNicotine), string(model.SubstanceNone))
    return e, v
}

func userTypeNames() []string {
    out := make([]string, len(model.UserTypes))
    for i, t := range model.UserTypes {
        out[i] = string(t)
    }
    return out
}

// LoginForm is the submitted login form.
type LoginForm struct {
    Email    string `form:"email"`
    Password string `form:"password"`
    Role     string `form:"role"`
}

// ValidateLogin checks the login form.
func ValidateLogin(f LoginForm) *Validator {
    v := NewValidator()
    v.Required("email", "Email", f.Email).
        Email("email", f.Email)
    v.Required("password", "Password", f.Password).
        MinLength("password", "Password", f.Password, 6)
    v.OneOf("role", "Role", f.Role, string(model.RoleAdmin), string(model.RoleDataEntry))
    return v
}

// NewUserForm is the admin's create-user form.
type NewUserForm struct {
    Name     string `form:"name"`
    Email    string `form:"email"`
    Password string `form:"password"`
}

// ValidateNewUser checks the create-user form and returns the
// registration payload for a data-entry account.
func ValidateNewUser(f NewUserForm) (model.NewAccount, *Validator) {
    v := NewValidator()
    acct := model.NewAccount{
        Name:     strings.TrimSpace(f.Name),
        Email:    strings.TrimSpace(f.Email),
        Password: f.Password,
        Role:     "data_entry",
    }
    v.Required("name", "Name", acct.Name).
        MaxLength("name", "Name", acct.Name, 255)
    v.Required("email", "Email", acct.Email).
        Email("email", acct.Email)
    v.Required("password", "Password", acct.Password).
        MinLength("password", "Password", acct.Password, 6).
        MaxLength("password", "Password", acct.Password, 1000)
    return acct, v
}
