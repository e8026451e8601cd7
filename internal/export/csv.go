// Package export serializes entry lists for download.
package export

import (
    "io"
    "strconv"
    "strings"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
)

// Filename is the name the browser saves the export under.
const Filename = "tobacco-detection-data.csv"

// ContentType is sent with the export.
const ContentType = "text/csv"

var header = []string{
    "Institution",
    "Name",
    "User Type",
    "Time (mins)",
    "pH Level",
    "Conductivity (µS/cm)",
    "Temperature (°C)",
    "Substance Detected",
}

// WriteCSV writes the header row followed by one row per entry, rows
// separated by "\n" with no trailing newline.
//
// Fields are joined with commas as-is.  A value that itself contains a
// comma, quote or newline is not escaped and will shift the columns of
// its row.
func WriteCSV(w io.Writer, entries []model.Entry) error {
    var b strings.Builder
    b.WriteString(strings.Join(header, ","))
    for _, e := range entries {
        b.WriteByte('\n')
        b.WriteString(strings.Join(row(e), ","))
    }
    _, err := io.WriteString(w, b.String())
    return err
}

func row(e model.Entry) []string {
    return []string{
        e.InstitutionName,
        e.Name,
        string(e.UserType),
        num(e.Time),
        num(e.PHLevel),
        num(e.Conductivity),
        num(e.Temperature),
        string(e.SubstanceDetected),
    }
}

// num prints the shortest decimal that round-trips, so 7 stays "7" and
// 6.5 stays "6.5".
func num(v float64) string {
    return strconv.FormatFloat(v, 'f', -1, 64)
}
