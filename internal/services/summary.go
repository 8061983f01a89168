package services

import (
	"bufio"
	"fmt"
	"io"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

const nothingToExport = "No difficulty responses found; nothing to export."

// WriteRecords prints every enriched record as one JSON line in timeline
// order.
func WriteRecords(w io.Writer, result *ExportResult) error {
	buf := bufio.NewWriter(w)
	for _, rec := range result.Records {
		if err := models.EncodeRecord(buf, rec.Payload); err != nil {
			return err
		}
	}
	return buf.Flush()
}

// WriteSummary prints the console report of a run: updated files, the
// records when emitRecords is set, the scale narrative and a final counts
// line.
func WriteSummary(w io.Writer, result *ExportResult, emitRecords bool) error {
	buf := bufio.NewWriter(w)

	if !result.ReadOnly {
		if len(result.Written) == 0 {
			fmt.Fprintln(buf, nothingToExport)
		}
		for _, written := range result.Written {
			fmt.Fprintf(buf, "Updated %s export at %s\n", written.Dataset, written.Path)
		}
	}

	if emitRecords {
		if err := WriteRecords(buf, result); err != nil {
			return err
		}
	}

	fmt.Fprintln(buf, result.Switches.Summary())
	fmt.Fprintln(buf, result.Switches.FirstSeenSummary())
	fmt.Fprintln(buf, CountsLine(result))

	return buf.Flush()
}

// CountsLine renders "graded/updated: N dataset(s) (R records scanned, S skipped)".
func CountsLine(result *ExportResult) string {
	n := len(result.Written)
	noun := "datasets"
	if n == 1 {
		noun = "dataset"
	}
	return fmt.Sprintf("graded/updated: %d %s (%d records scanned, %d skipped)",
		n, noun, result.Scanned, result.Skipped)
}
