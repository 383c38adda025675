// Package views renders the HTML pages of the catalog service.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/a-h/templ"
)

// PageData is what the catalog page shows. Products is empty when nothing
// has been built yet.
type PageData struct {
	Source    string
	CreatedAt time.Time
	Stats     catalog.Stats
	Products  []catalog.Product
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
h1{margin-bottom:.25rem}.meta{color:#6b7280;margin-bottom:1.5rem}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(16rem,1fr));gap:1rem}
.card{border:1px solid #e5e7eb;border-radius:.5rem;padding:1rem}
.class{font-size:.75rem;text-transform:uppercase;color:#6b7280}
table{width:100%;border-collapse:collapse;margin-top:.5rem}td{padding:.25rem 0;border-top:1px solid #f3f4f6}
.out{color:#b91c1c}.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;border-radius:.5rem}`

// CatalogPage renders the product list.
func CatalogPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}

		writeHead(ew, "Catálogo")
		ew.printf("<h1>Catálogo</h1>")

		if data.CreatedAt.IsZero() {
			ew.printf(`<p class="meta">No catalog has been published yet.</p>`)
			writeFoot(ew)
			return ew.err
		}

		ew.printf(`<p class="meta">%d products from %s, updated %s</p>`,
			data.Stats.Products,
			templ.EscapeString(data.Source),
			templ.EscapeString(data.CreatedAt.Format("2006-01-02 15:04 MST")),
		)

		ew.printf(`<div class="grid">`)
		for _, p := range data.Products {
			writeProduct(ew, p)
		}
		ew.printf(`</div>`)

		writeFoot(ew)
		return ew.err
	})
}

func writeProduct(ew *errWriter, p catalog.Product) {
	ew.printf(`<div class="card"><div class="class">%s</div><h2>%s</h2>`,
		templ.EscapeString(p.Class), templ.EscapeString(p.Name))
	if p.Image != "" {
		ew.printf(`<div class="meta">%s</div>`, templ.EscapeString(p.Image))
	}
	ew.printf(`<table>`)
	for _, pr := range p.Presentations {
		label := pr.Presentation
		if label == "" {
			label = "—"
		}
		stockClass := ""
		if pr.Stock == 0 {
			stockClass = ` class="out"`
		}
		ew.printf(`<tr><td>%s</td><td>%s</td><td%s>%s</td></tr>`,
			templ.EscapeString(label),
			templ.EscapeString(pr.Code),
			stockClass,
			strconv.Itoa(pr.Stock),
		)
	}
	ew.printf(`</table></div>`)
}

// ErrorPage renders a user-facing error.
func ErrorPage(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		writeHead(ew, "Error")
		ew.printf(`<div class="alert"><strong>%s</strong><p>%s</p><small>Code: %s</small></div>`,
			templ.EscapeString(message),
			templ.EscapeString(action),
			templ.EscapeString(code),
		)
		writeFoot(ew)
		return ew.err
	})
}

func writeHead(ew *errWriter, title string) {
	ew.printf(`<!DOCTYPE html><html lang="es"><head><meta charset="utf-8">`+
		`<meta name="viewport" content="width=device-width, initial-scale=1">`+
		`<title>%s</title><style>%s</style></head><body>`,
		templ.EscapeString(title), pageStyle)
}

func writeFoot(ew *errWriter) {
	ew.printf(`</body></html>`)
}

// errWriter remembers the first write error so rendering code can write
// unconditionally and check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
