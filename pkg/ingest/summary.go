package ingest

import (
	"fmt"
	"strings"
)

// ComposeSummary produces the single system line recorded for an upload
// batch. Wording depends only on how many snippets survived normalization.
func ComposeSummary(accepted []Snippet) string {
	switch len(accepted) {
	case 0:
		return "No valid data was found in the upload."
	case 1:
		return fmt.Sprintf("Data loaded: %s (%d rows tracked)",
			accepted[0].Name, accepted[0].TrueRowCount)
	default:
		names := make([]string, 0, len(accepted))
		for _, s := range accepted {
			names = append(names, DisplayName(s.Name))
		}
		return fmt.Sprintf("Data loaded: %d items collected\nItems: %s\nTotal rows tracked across all data sources.",
			len(accepted), strings.Join(names, ", "))
	}
}
