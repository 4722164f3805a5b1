package store

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

// ExportSheet is the sheet name in the exported workbook.
const ExportSheet = "Sleep Summaries"

// exportHeader mirrors the summary record field order.
var exportHeader = []string{
	"Date",
	"Avg Breath Rate",
	"Min Breath Rate",
	"Max Breath Rate",
	"Avg Peaks In 20",
	"Apnea Events",
	"Hypopnea Events",
	"AHI",
	"Longest Pause",
	"Total Sleep Secs",
}

// WriteXLSX renders the summary history as a spreadsheet, one row per date
// in the given order, with a styled frozen header row.
func WriteXLSX(w io.Writer, summaries []sleep.Summary) error {
	f := excelize.NewFile()
	// Close only on the error paths and at the end: WriteTo needs the file
	// open.

	index, err := f.NewSheet(ExportSheet)
	if err != nil {
		f.Close()
		return fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return fmt.Errorf("create header style: %w", err)
	}

	for col, header := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(ExportSheet, cell, header); err != nil {
			f.Close()
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(ExportSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return fmt.Errorf("style header cell %s: %w", cell, err)
		}
	}

	for i := range exportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return fmt.Errorf("convert column number: %w", err)
		}
		width := 16.0
		if i == 0 {
			width = 12.0
		}
		if err := f.SetColWidth(ExportSheet, col, col, width); err != nil {
			f.Close()
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i, sum := range summaries {
		row := i + 2
		values := []interface{}{
			sum.Date,
			sum.AvgBreathRate,
			sum.MinBreathRate,
			sum.MaxBreathRate,
			sum.AvgPeaksIn20,
			sum.ApneaEvents,
			sum.HypopneaEvents,
			sum.AHI,
			sum.LongestPause,
			sum.TotalSleepSecs,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return fmt.Errorf("convert coordinates: %w", err)
			}
			if err := f.SetCellValue(ExportSheet, cell, v); err != nil {
				f.Close()
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(ExportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return fmt.Errorf("freeze header row: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	return f.Close()
}
