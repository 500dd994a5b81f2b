// Package pages composes full page bodies from components.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/claimsdash/internal/adapter/driving/web/templates/components"
	vm "github.com/ericfisherdev/claimsdash/internal/adapter/driving/web/viewmodel"
)

// Dashboard renders KPI tiles, the charts, the trend and both tables.
func Dashboard(view vm.DashboardViewModel) templ.Component {
	parts := []templ.Component{
		components.Notes(view.NotesHTML),
		components.KPITiles(view.KPIs),
	}
	for _, chart := range view.Charts {
		parts = append(parts, components.BarChart(chart))
	}
	parts = append(parts, components.Table(view.Trend))
	for _, table := range view.Tables {
		parts = append(parts, components.Table(table))
	}
	parts = append(parts, components.Footer(view.CredentialSource, view.GeneratedAt))

	return sequence(parts...)
}

// Explore renders the reporting table's schema and its first rows.
func Explore(view vm.ExploreViewModel) templ.Component {
	heading := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<h1>`+templ.EscapeString(view.TableName)+`</h1>`)
		return err
	})
	return sequence(
		components.Notes(view.NotesHTML),
		heading,
		components.Table(view.Schema),
		components.Table(view.Sample),
	)
}

// Error renders only an error panel. Nothing else of the page is shown.
func Error(view vm.ErrorViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		markup := `<section class="error" role="alert"><h1>` + templ.EscapeString(view.Title) + `</h1>` +
			`<p>` + templ.EscapeString(view.Message) + `</p>`
		if view.Detail != "" {
			markup += `<pre>` + templ.EscapeString(view.Detail) + `</pre>`
		}
		markup += `</section>`
		_, err := io.WriteString(w, markup)
		return err
	})
}

func sequence(parts ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, p := range parts {
			if err := p.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}
