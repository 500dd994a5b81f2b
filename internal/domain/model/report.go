package model

import "time"

// KPIs holds the five headline figures of the dashboard.
type KPIs struct {
	TotalClaims       int64
	TotalCharges      float64
	DistinctMembers   int64
	DistinctProviders int64
	// DenialRate is the share of claims with status "denied", 0 when the table is empty.
	DenialRate float64
}

// LabeledValue is one bar of a categorical chart.
type LabeledValue struct {
	Label string
	Value float64
}

// TrendPoint is one period of the monthly charges trend.
type TrendPoint struct {
	Period       string // YYYY-MM
	Charges      float64
	DeniedAmount float64
}

// ProviderDenialRate is the denial rate of a provider with at least three claims.
type ProviderDenialRate struct {
	Provider   string
	DenialRate float64
	Total      int64
}

// Table is a tabular result set with explicit column names. Values are
// normalized to string, int64, float64, bool, time.Time or nil.
type Table struct {
	Columns []string
	Rows    [][]any
}

// ColumnInfo describes one column of the reporting table.
type ColumnInfo struct {
	Name     string
	DataType string
}

// Report is everything one dashboard render hands to the presentation layer.
// It is built per render and never cached.
type Report struct {
	KPIs                KPIs
	StatusCounts        []LabeledValue
	MonthlyTrend        []TrendPoint
	TopDenialReasons    []LabeledValue
	ProviderDenialRates []ProviderDenialRate
	TopDiagnosesByCost  []LabeledValue
	TopProviders        Table
	OutlierClaims       Table
	CredentialSource    CredentialSource
	GeneratedAt         time.Time
}

// Exploration is the raw table viewer: column schema plus the first rows.
type Exploration struct {
	Schema []ColumnInfo
	Sample Table
}
