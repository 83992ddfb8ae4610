package analyst

// Status is the coarse processing phase of the BI engine.
type Status string

// InsightType is the topic classification of the latest analysis turn.
type InsightType string

const (
	StatusIdle        Status = "IDLE"
	StatusAnalyzing   Status = "ANALYZING"
	StatusVisualizing Status = "VISUALIZING"

	InsightGeneral   InsightType = "GENERAL"
	InsightFinancial InsightType = "FINANCIAL"
	InsightInventory InsightType = "INVENTORY"
	InsightAlert     InsightType = "ALERT"
)

// ChartPoint is a single plottable data point.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ChartData is the optional visualization payload attached to a response.
type ChartData struct {
	Type  string       `json:"type"` // "bar" | "pie" | "line"
	Title string       `json:"title"`
	Data  []ChartPoint `json:"data"`
}

// TableRow holds one row of values, positionally aligned with the table columns.
type TableRow struct {
	Data []string `json:"data"`
}

// TableData is the optional tabular payload attached to a response.
type TableData struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// BusinessState is the single authoritative snapshot of a conversation's
// analytic context. One instance lives per user; it is replaced wholesale
// after each command.
type BusinessState struct {
	Status          Status      `json:"status"`
	InsightType     InsightType `json:"insightType"`
	ConfidenceScore int         `json:"confidenceScore"`
	RecordsLoaded   int         `json:"recordsLoaded"`
	Message         string      `json:"message,omitempty"`
	ChartData       *ChartData  `json:"chartData,omitempty"`
	TableData       *TableData  `json:"tableData,omitempty"`
}

// InitialState returns the zero state used before any command has run or
// after the workspace is emptied.
func InitialState() BusinessState {
	return BusinessState{
		Status:          StatusIdle,
		InsightType:     InsightGeneral,
		ConfidenceScore: 0,
		RecordsLoaded:   0,
	}
}

func validChartType(t string) bool {
	switch t {
	case "bar", "pie", "line":
		return true
	}
	return false
}

func validStatus(s Status) bool {
	switch s {
	case StatusIdle, StatusAnalyzing, StatusVisualizing:
		return true
	}
	return false
}

func validInsightType(t InsightType) bool {
	switch t {
	case InsightGeneral, InsightFinancial, InsightInventory, InsightAlert:
		return true
	}
	return false
}
