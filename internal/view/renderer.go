// Package view renders the dashboard's HTML pages.  Every page is parsed
// together with the shared layout once, at startup.
package view

import (
    "embed"
    "fmt"
    "html/template"
    "io"
    "io/fs"
    "log"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/session"
)

//go:embed templates/*.html
var files embed.FS

const layout = "layout.html"

// Page is the data every template receives.  Data holds the page's own
// view model.
type Page struct {
    Title     string
    Session   session.Session
    Flashes   []middleware.Flash
    Reachable bool
    Data      any
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
    pages map[string]*template.Template
}

// NewRenderer parses the layout with each page template.
func NewRenderer() (*Renderer, error) {
    names, err := fs.Glob(files, "templates/*.html")
    if err != nil {
        return nil, err
    }
    r := &Renderer{pages: map[string]*template.Template{}}
    for _, path := range names {
        name := strings.TrimPrefix(path, "templates/")
        if name == layout {
            continue
        }
        t, err := template.New(layout).Funcs(funcs).ParseFS(files, "templates/"+layout, path)
        if err != nil {
            return nil, fmt.Errorf("parse %s: %w", name, err)
        }
        r.pages[name] = t
    }
    return r, nil
}

// Render executes the named page inside the layout.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
    t, ok := r.pages[name]
    if !ok {
        return fmt.Errorf("view: unknown template %q", name)
    }
    if err := t.ExecuteTemplate(w, layout, data); err != nil {
        log.Printf("Error rendering template '%s': %v", name, err)
        return err
    }
    return nil
}

var funcs = template.FuncMap{
    "num": func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
    "fixed1": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
    "date": func(t time.Time) string {
        if t.IsZero() {
            return ""
        }
        return t.Local().Format("2006-01-02 15:04")
    },
    "roleLabel": func(r model.Role) string { return r.Label() },
    "isAdmin":   func(s session.Session) bool { return s.Authenticated() && s.Role == model.RoleAdmin },
    "isEntry":   func(s session.Session) bool { return s.Authenticated() && s.Role == model.RoleDataEntry },
}
