package services

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

const (
	scalesSheet   = "Scales"
	switchesSheet = "Switches"
)

// BuildScaleReport renders per-dataset scale statistics and the switch
// narrative as an xlsx workbook.
func BuildScaleReport(stats []models.DatasetStats, switches ScaleSwitches) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), scalesSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{
		"Dataset", "Scale", "Records", "Numeric Values", "Time-like Values",
		"Max Numeric", "First Observed", "Last Observed",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(scalesSheet, cell, header)
	}

	for rowIndex, st := range stats {
		row := []interface{}{
			st.Dataset,
			string(st.Scale),
			st.Records,
			st.NumericValues,
			st.TimeLikeValues,
			"",
			"",
			"",
		}
		if st.MaxNumeric != nil {
			row[5] = *st.MaxNumeric
		}
		if st.FirstTimestamp != nil {
			row[6] = FormatMillis(*st.FirstTimestamp)
		}
		if st.LastTimestamp != nil {
			row[7] = FormatMillis(*st.LastTimestamp)
		}

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(scalesSheet, cell, value)
		}
	}

	if _, err := f.NewSheet(switchesSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	for i, header := range []string{"From", "To", "Status", "Observed At"} {
		f.SetCellValue(switchesSheet, fmt.Sprintf("%c1", 'A'+i), header)
	}
	for rowIndex, tr := range switches.Transitions {
		row := []interface{}{string(tr.From), string(tr.To), string(tr.Status), ""}
		if tr.At != nil {
			row[3] = Describe(tr.At)
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(switchesSheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteScaleReport builds the workbook and writes it to path.
func WriteScaleReport(path string, stats []models.DatasetStats, switches ScaleSwitches) error {
	data, err := BuildScaleReport(stats, switches)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
