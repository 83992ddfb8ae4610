package analyst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validState() *BusinessState {
	return &BusinessState{
		Status:          StatusAnalyzing,
		InsightType:     InsightFinancial,
		ConfidenceScore: 85,
		RecordsLoaded:   120,
		Message:         "Revenue grew 12% month over month.",
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *BusinessState) *BusinessState
		wantErr bool
	}{
		{
			name:    "valid minimal state",
			mutate:  func(s *BusinessState) *BusinessState { return s },
			wantErr: false,
		},
		{
			name:    "nil state",
			mutate:  func(s *BusinessState) *BusinessState { return nil },
			wantErr: true,
		},
		{
			name: "missing message",
			mutate: func(s *BusinessState) *BusinessState {
				s.Message = ""
				return s
			},
			wantErr: true,
		},
		{
			name: "unknown status",
			mutate: func(s *BusinessState) *BusinessState {
				s.Status = "THINKING"
				return s
			},
			wantErr: true,
		},
		{
			name: "unknown insight type",
			mutate: func(s *BusinessState) *BusinessState {
				s.InsightType = "GOSSIP"
				return s
			},
			wantErr: true,
		},
		{
			name: "confidence above range",
			mutate: func(s *BusinessState) *BusinessState {
				s.ConfidenceScore = 101
				return s
			},
			wantErr: true,
		},
		{
			name: "confidence below range",
			mutate: func(s *BusinessState) *BusinessState {
				s.ConfidenceScore = -1
				return s
			},
			wantErr: true,
		},
		{
			name: "valid chart payload",
			mutate: func(s *BusinessState) *BusinessState {
				s.ChartData = &ChartData{
					Type:  "pie",
					Title: "Share",
					Data:  []ChartPoint{{Name: "a", Value: 1}},
				}
				return s
			},
			wantErr: false,
		},
		{
			name: "unknown chart type",
			mutate: func(s *BusinessState) *BusinessState {
				s.ChartData = &ChartData{
					Type: "scatter",
					Data: []ChartPoint{{Name: "a", Value: 1}},
				}
				return s
			},
			wantErr: true,
		},
		{
			name: "chart without points",
			mutate: func(s *BusinessState) *BusinessState {
				s.ChartData = &ChartData{Type: "bar"}
				return s
			},
			wantErr: true,
		},
		{
			name: "table without columns",
			mutate: func(s *BusinessState) *BusinessState {
				s.TableData = &TableData{Title: "Empty"}
				return s
			},
			wantErr: true,
		},
		{
			name: "table row misaligned with columns",
			mutate: func(s *BusinessState) *BusinessState {
				s.TableData = &TableData{
					Columns: []string{"a", "b"},
					Rows:    []TableRow{{Data: []string{"only one"}}},
				}
				return s
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResponse(tt.mutate(validState()))

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResponse)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
