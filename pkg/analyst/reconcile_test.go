package analyst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name        string
		reported    int
		previous    int
		filesLoaded int
		want        int
	}{
		{
			name:        "no files forces zero",
			reported:    42,
			previous:    500,
			filesLoaded: 0,
			want:        0,
		},
		{
			name:        "zero report with files carries previous forward",
			reported:    0,
			previous:    500,
			filesLoaded: 2,
			want:        500,
		},
		{
			name:        "zero report with files and zero previous stays zero",
			reported:    0,
			previous:    0,
			filesLoaded: 1,
			want:        0,
		},
		{
			name:        "positive report is accepted",
			reported:    120,
			previous:    500,
			filesLoaded: 1,
			want:        120,
		},
		{
			name:        "positive report on fresh state is accepted",
			reported:    73,
			previous:    0,
			filesLoaded: 1,
			want:        73,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := BusinessState{RecordsLoaded: tt.reported}
			prev := BusinessState{RecordsLoaded: tt.previous}

			Reconcile(&next, prev, tt.filesLoaded)

			assert.Equal(t, tt.want, next.RecordsLoaded)
		})
	}
}

func TestFallbackPreservesContext(t *testing.T) {
	prev := BusinessState{
		Status:          StatusVisualizing,
		InsightType:     InsightFinancial,
		ConfidenceScore: 91,
		RecordsLoaded:   500,
		Message:         "Revenue is trending up.",
		ChartData: &ChartData{
			Type:  "bar",
			Title: "Revenue by Month",
			Data:  []ChartPoint{{Name: "Jan", Value: 1200}},
		},
		TableData: &TableData{
			Title:   "Top Products",
			Columns: []string{"Product", "Units"},
			Rows:    []TableRow{{Data: []string{"Widget", "40"}}},
		},
	}

	got := Fallback(prev)

	assert.Equal(t, StatusIdle, got.Status)
	assert.Equal(t, InsightAlert, got.InsightType)
	assert.NotEmpty(t, got.Message)
	assert.NotEqual(t, prev.Message, got.Message)
	assert.Equal(t, prev.RecordsLoaded, got.RecordsLoaded)
	assert.Equal(t, prev.ConfidenceScore, got.ConfidenceScore)
	assert.Same(t, prev.ChartData, got.ChartData)
	assert.Same(t, prev.TableData, got.TableData)
}

func TestCelebrate(t *testing.T) {
	tests := []struct {
		name  string
		state BusinessState
		want  bool
	}{
		{
			name:  "financial above threshold",
			state: BusinessState{InsightType: InsightFinancial, ConfidenceScore: 81},
			want:  true,
		},
		{
			name:  "financial at threshold",
			state: BusinessState{InsightType: InsightFinancial, ConfidenceScore: 80},
			want:  false,
		},
		{
			name:  "non-financial above threshold",
			state: BusinessState{InsightType: InsightInventory, ConfidenceScore: 99},
			want:  false,
		},
		{
			name:  "alert above threshold",
			state: BusinessState{InsightType: InsightAlert, ConfidenceScore: 95},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Celebrate(tt.state))
		})
	}
}

func TestRetainedRows(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{
			name:    "header plus two rows",
			content: "name,amount\na,1\nb,2",
			want:    2,
		},
		{
			name:    "header only",
			content: "name,amount",
			want:    0,
		},
		{
			name:    "empty content",
			content: "",
			want:    0,
		},
		{
			name:    "ragged rows still counted",
			content: "a,b,c\n1,2\n3,4,5,6",
			want:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RetainedRows(tt.content))
		})
	}
}

func TestBuildContextBundle(t *testing.T) {
	t.Run("no sources", func(t *testing.T) {
		assert.Equal(t, "No files uploaded.", BuildContextBundle(nil))
	})

	t.Run("named sources embedded", func(t *testing.T) {
		got := BuildContextBundle([]Source{
			{Name: "sales.csv", Content: "name,amount\na,1\nb,2"},
			{Name: "stock.csv", Content: "sku,qty\nx,9"},
		})

		for _, want := range []string{
			"--- SOURCE FILE: sales.csv ---",
			"Rows Available: 2",
			"--- SOURCE FILE: stock.csv ---",
			"Rows Available: 1",
			"a,1",
		} {
			assert.Contains(t, got, want)
		}
	})
}
