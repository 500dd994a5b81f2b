// Package components holds the reusable fragments of the dashboard pages.
package components

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/claimsdash/internal/adapter/driving/web/viewmodel"
)

// html accumulates markup and remembers the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// Notes renders the operator notes banner. sanitizedHTML must already be
// sanitized; an empty string renders nothing.
func Notes(sanitizedHTML string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if strings.TrimSpace(sanitizedHTML) == "" {
			return nil
		}
		h := &html{w: w}
		h.raw(`<aside class="notes">`)
		h.raw(sanitizedHTML)
		h.raw(`</aside>`)
		return h.err
	})
}

// KPITiles renders the headline figures as a row of tiles.
func KPITiles(tiles []vm.KPITileViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<section class="kpis">`)
		for _, t := range tiles {
			h.raw(`<div class="kpi"><span class="kpi-label">`)
			h.text(t.Label)
			h.raw(`</span><span class="kpi-value">`)
			h.text(t.Value)
			h.raw(`</span></div>`)
		}
		h.raw(`</section>`)
		return h.err
	})
}

// BarChart renders a categorical chart as a horizontal bar list.
func BarChart(chart vm.BarChartViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<section class="chart"><h2>`)
		h.text(chart.Title)
		h.raw(`</h2>`)
		if len(chart.Bars) == 0 {
			h.raw(`<p class="empty">No data</p>`)
		} else {
			h.raw(`<ul class="bars">`)
			for _, b := range chart.Bars {
				h.raw(`<li><span class="bar-label">`)
				h.text(b.Label)
				h.raw(`</span><span class="bar-track"><span class="bar" style="width:`)
				h.raw(strconv.Itoa(b.Percent))
				h.raw(`%"></span></span><span class="bar-value">`)
				h.text(b.Value)
				h.raw(`</span></li>`)
			}
			h.raw(`</ul>`)
		}
		h.raw(`</section>`)
		return h.err
	})
}

// Table renders a titled data table.
func Table(table vm.TableViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<section class="table"><h2>`)
		h.text(table.Title)
		h.raw(`</h2>`)
		if len(table.Rows) == 0 {
			h.raw(`<p class="empty">No rows</p></section>`)
			return h.err
		}
		h.raw(`<div class="scroll"><table><thead><tr>`)
		for _, c := range table.Columns {
			h.raw(`<th>`)
			h.text(c)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, row := range table.Rows {
			h.raw(`<tr>`)
			for _, cell := range row {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div></section>`)
		return h.err
	})
}

// Footer shows where the data came from.
func Footer(credentialSource, generatedAt string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<footer>Generated `)
		h.text(generatedAt)
		if credentialSource != "" {
			h.raw(` &middot; credential: `)
			h.text(credentialSource)
		}
		h.raw(`</footer>`)
		return h.err
	})
}
