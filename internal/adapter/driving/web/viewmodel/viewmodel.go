// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// KPITileViewModel is one headline figure, already formatted.
type KPITileViewModel struct {
	Label string
	Value string
}

// BarViewModel is one bar of a horizontal bar list.
type BarViewModel struct {
	Label string
	Value string
	// Percent is the bar width relative to the largest bar, 0 to 100.
	Percent int
}

// BarChartViewModel is a titled categorical chart rendered as a bar list.
type BarChartViewModel struct {
	Title string
	Bars  []BarViewModel
}

// TableViewModel is a titled table with every cell formatted as text.
type TableViewModel struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// DashboardViewModel holds everything the dashboard page renders.
type DashboardViewModel struct {
	KPIs   []KPITileViewModel
	Charts []BarChartViewModel
	Trend  TableViewModel
	Tables []TableViewModel

	// NotesHTML is sanitized operator markdown; empty hides the banner.
	NotesHTML        string
	CredentialSource string
	GeneratedAt      string
}

// ExploreViewModel holds the raw table viewer.
type ExploreViewModel struct {
	TableName string
	Schema    TableViewModel
	Sample    TableViewModel
	NotesHTML string
}

// ErrorViewModel is the error-only page shown when a render fails.
type ErrorViewModel struct {
	Title   string
	Message string
	// Detail is the underlying driver or provider message, shown verbatim.
	Detail string
}
