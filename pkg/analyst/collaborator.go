package analyst

import (
	"context"
	"errors"
)

// Request is the bundle the engine hands to the AI collaborator: the raw
// user command, the serialized data-source context, and the record count the
// engine currently believes in.
type Request struct {
	Command       string
	ContextBundle string
	RecordsLoaded int
}

// ErrInvalidResponse marks a collaborator payload that did not survive
// schema validation. Callers treat it the same as a transport failure.
var ErrInvalidResponse = errors.New("analyst: invalid collaborator response")

// Collaborator is the external AI service all reasoning is delegated to.
// Implementations must return a fully validated BusinessState or an error.
type Collaborator interface {
	Analyze(ctx context.Context, req Request) (*BusinessState, error)
}

// ValidateResponse checks a decoded collaborator payload against the
// BusinessState shape. A response with no message, an unknown enum value, or
// a malformed chart/table payload is rejected outright rather than partially
// trusted.
func ValidateResponse(state *BusinessState) error {
	if state == nil {
		return ErrInvalidResponse
	}
	if state.Message == "" {
		return errors.Join(ErrInvalidResponse, errors.New("missing message field"))
	}
	if !validStatus(state.Status) {
		return errors.Join(ErrInvalidResponse, errors.New("unknown status value"))
	}
	if !validInsightType(state.InsightType) {
		return errors.Join(ErrInvalidResponse, errors.New("unknown insight type"))
	}
	if state.ConfidenceScore < 0 || state.ConfidenceScore > 100 {
		return errors.Join(ErrInvalidResponse, errors.New("confidence score out of range"))
	}
	if state.ChartData != nil {
		if !validChartType(state.ChartData.Type) {
			return errors.Join(ErrInvalidResponse, errors.New("unknown chart type"))
		}
		if len(state.ChartData.Data) == 0 {
			return errors.Join(ErrInvalidResponse, errors.New("chart payload has no data points"))
		}
	}
	if state.TableData != nil {
		if len(state.TableData.Columns) == 0 {
			return errors.Join(ErrInvalidResponse, errors.New("table payload has no columns"))
		}
		for _, row := range state.TableData.Rows {
			if len(row.Data) != len(state.TableData.Columns) {
				return errors.Join(ErrInvalidResponse, errors.New("table row not aligned with columns"))
			}
		}
	}
	return nil
}
