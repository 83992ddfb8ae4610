package analyst

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// Source is one loaded data source as seen by the collaborator: a snippet
// name plus its retained CSV content.
type Source struct {
	Name    string
	Content string
}

// RetainedRows parses a snippet's CSV content and returns the number of data
// rows actually retained (header excluded). The stored true row count is
// deliberately not consulted here: the collaborator must be told what it can
// actually see.
func RetainedRows(content string) int {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return 0
	}
	return len(records) - 1
}

// BuildContextBundle serializes the loaded sources into the textual context
// block the collaborator prompt embeds. Each source contributes its name,
// its retained row count, and its raw content.
func BuildContextBundle(sources []Source) string {
	if len(sources) == 0 {
		return "No files uploaded."
	}

	var b strings.Builder
	for _, src := range sources {
		b.WriteString(fmt.Sprintf("\n--- SOURCE FILE: %s ---\n", src.Name))
		b.WriteString(fmt.Sprintf("Rows Available: %d\n", RetainedRows(src.Content)))
		b.WriteString(fmt.Sprintf("Data Preview:\n%s\n", src.Content))
	}
	return b.String()
}

// Reconcile corrects the collaborator's self-reported record count using the
// engine's own upload bookkeeping. The collaborator has no authoritative
// view of what was uploaded, so a reported zero must never erase a
// known-nonzero count:
//
//   - no files loaded: the count is forced to 0 whatever the model said;
//   - model reports 0 while files are loaded and the previous state had a
//     positive count: the previous count is carried forward;
//   - anything else: the model's value is accepted.
func Reconcile(next *BusinessState, prev BusinessState, filesLoaded int) {
	if filesLoaded == 0 {
		next.RecordsLoaded = 0
		return
	}
	if next.RecordsLoaded == 0 && prev.RecordsLoaded > 0 {
		next.RecordsLoaded = prev.RecordsLoaded
	}
}

// Fallback builds the local failure state surfaced when the collaborator is
// unreachable or returns garbage. All prior fields are preserved except the
// phase, the classification, and the message. It is never persisted.
func Fallback(prev BusinessState) BusinessState {
	next := prev
	next.Status = StatusIdle
	next.InsightType = InsightAlert
	next.Message = "System Error: Unable to process business logic at this time."
	return next
}

// Celebrate reports whether the resolved state should trigger the cosmetic
// celebration effect on the client.
func Celebrate(state BusinessState) bool {
	return state.InsightType == InsightFinancial && state.ConfidenceScore > 80
}
