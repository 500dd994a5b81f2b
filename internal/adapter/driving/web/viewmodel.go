package web

import (
	"fmt"
	"math"
	"strings"
	"time"

	vm "github.com/ericfisherdev/claimsdash/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// toDashboardViewModel converts a rendered report into the dashboard page model.
func toDashboardViewModel(r *model.Report, notesHTML string) vm.DashboardViewModel {
	trend := vm.TableViewModel{
		Title:   "Monthly charges",
		Columns: []string{"Month", "Charges", "Denied amount"},
		Rows:    make([][]string, 0, len(r.MonthlyTrend)),
	}
	for _, p := range r.MonthlyTrend {
		trend.Rows = append(trend.Rows, []string{p.Period, formatMoney(p.Charges), formatMoney(p.DeniedAmount)})
	}

	rates := make([]model.LabeledValue, 0, len(r.ProviderDenialRates))
	for _, p := range r.ProviderDenialRates {
		rates = append(rates, model.LabeledValue{Label: fmt.Sprintf("%s (%d claims)", p.Provider, p.Total), Value: p.DenialRate})
	}

	return vm.DashboardViewModel{
		KPIs: []vm.KPITileViewModel{
			{Label: "Total claims", Value: formatCount(float64(r.KPIs.TotalClaims))},
			{Label: "Total charges", Value: formatMoney(r.KPIs.TotalCharges)},
			{Label: "Members", Value: formatCount(float64(r.KPIs.DistinctMembers))},
			{Label: "Providers", Value: formatCount(float64(r.KPIs.DistinctProviders))},
			{Label: "Denial rate", Value: formatPercent(r.KPIs.DenialRate)},
		},
		Charts: []vm.BarChartViewModel{
			toBarChart("Claims by status", r.StatusCounts, formatCount),
			toBarChart("Top denial reasons", r.TopDenialReasons, formatCount),
			toBarChart("Provider denial rates", rates, formatPercent),
			toBarChart("Top diagnoses by cost", r.TopDiagnosesByCost, formatMoney),
		},
		Trend: trend,
		Tables: []vm.TableViewModel{
			toTableViewModel("Top providers by charges", r.TopProviders),
			toTableViewModel("Outlier claims (> mean + 3σ)", r.OutlierClaims),
		},
		NotesHTML:        notesHTML,
		CredentialSource: string(r.CredentialSource),
		GeneratedAt:      r.GeneratedAt.UTC().Format(time.RFC1123),
	}
}

// toExploreViewModel converts an exploration into the table viewer page model.
func toExploreViewModel(e *model.Exploration, tableName, notesHTML string) vm.ExploreViewModel {
	schema := vm.TableViewModel{
		Title:   "Schema",
		Columns: []string{"Column", "Type"},
		Rows:    make([][]string, 0, len(e.Schema)),
	}
	for _, c := range e.Schema {
		schema.Rows = append(schema.Rows, []string{c.Name, c.DataType})
	}

	return vm.ExploreViewModel{
		TableName: tableName,
		Schema:    schema,
		Sample:    toTableViewModel("Sample rows", e.Sample),
		NotesHTML: notesHTML,
	}
}

func toBarChart(title string, values []model.LabeledValue, format func(float64) string) vm.BarChartViewModel {
	chart := vm.BarChartViewModel{Title: title, Bars: make([]vm.BarViewModel, 0, len(values))}

	var peak float64
	for _, v := range values {
		peak = math.Max(peak, v.Value)
	}

	for _, v := range values {
		pct := 0
		if peak > 0 && v.Value > 0 {
			pct = int(math.Round(v.Value / peak * 100))
		}
		chart.Bars = append(chart.Bars, vm.BarViewModel{Label: v.Label, Value: format(v.Value), Percent: pct})
	}
	return chart
}

func toTableViewModel(title string, t model.Table) vm.TableViewModel {
	view := vm.TableViewModel{
		Title:   title,
		Columns: t.Columns,
		Rows:    make([][]string, 0, len(t.Rows)),
	}
	if view.Columns == nil {
		view.Columns = []string{}
	}
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		view.Rows = append(view.Rows, cells)
	}
	return view
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatDecimal(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

func formatDecimal(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.2f", f)
}

// formatCount renders whole numbers with thousands separators.
func formatCount(f float64) string {
	return groupThousands(fmt.Sprintf("%.0f", f))
}

func formatMoney(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	whole, frac, _ := strings.Cut(s, ".")
	return "$" + groupThousands(whole) + "." + frac
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
