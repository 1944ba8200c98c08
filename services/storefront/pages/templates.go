package pages

import (
	"embed"
	"html/template"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"quickbidz-storefront/internal/countdown"
	"quickbidz-storefront/internal/models"
	"quickbidz-storefront/internal/upload"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Assets is the stylesheet directory served under /static.
func Assets() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// FuncMap holds the helpers the page templates use. now drives every
// time-relative value so renders are reproducible in tests.
func FuncMap(now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"price": Price,
		"number": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		"priceOf": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return Price(*v)
		},
		"countdown": func(end string) string {
			return countdown.RemainingFromString(end, now())
		},
		"ended": func(end string) bool {
			return countdown.IsEnded(countdown.RemainingFromString(end, now()))
		},
		"date":     countdown.FormatDate,
		"datetime": countdown.FormatDateTime,
		"ago": func(raw string) string {
			return countdown.Relative(raw, now())
		},
		"duration": func(start, end string) string {
			s, okStart := models.ParseTime(start)
			e, okEnd := models.ParseTime(end)
			if !okStart || !okEnd {
				return ""
			}
			return countdown.FormatDuration(s, e)
		},
		"statusClass": func(s models.AuctionStatus) string {
			return strings.ToLower(string(s.Normalize()))
		},
		"maxUpload": func() string {
			return humanize.IBytes(upload.DefaultMaxSize)
		},
		"initial": func(s string) string {
			if s == "" {
				return "?"
			}
			return strings.ToUpper(s[:1])
		},
	}
}

// Price renders an amount as "$1,234.50".
func Price(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// Templates parses the embedded page templates.
func Templates(now func() time.Time) (*template.Template, error) {
	return template.New("pages").Funcs(FuncMap(now)).ParseFS(templateFS, "templates/*.tmpl")
}
