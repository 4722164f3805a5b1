package store

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

func TestWriteXLSX(t *testing.T) {
	summaries := []sleep.Summary{
		testSummary("2026-01-01"),
		testSummary("2026-01-02"),
	}
	summaries[1].AvgBreathRate = 15.5

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, summaries); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("exported workbook does not open: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue(ExportSheet, "A1")
	if err != nil {
		t.Fatalf("read header cell: %v", err)
	}
	if got != "Date" {
		t.Errorf("expected header Date, got %q", got)
	}

	got, err = f.GetCellValue(ExportSheet, "A2")
	if err != nil {
		t.Fatalf("read date cell: %v", err)
	}
	if got != "2026-01-01" {
		t.Errorf("expected first row date 2026-01-01, got %q", got)
	}

	got, err = f.GetCellValue(ExportSheet, "B3")
	if err != nil {
		t.Fatalf("read rate cell: %v", err)
	}
	if got != "15.5" {
		t.Errorf("expected second row avg rate 15.5, got %q", got)
	}

	rows, err := f.GetRows(ExportSheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 { // header + two data rows
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
	if len(rows[0]) != len(exportHeader) {
		t.Errorf("expected %d header columns, got %d", len(exportHeader), len(rows[0]))
	}
}

func TestWriteXLSXEmptyHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err != nil {
		t.Fatalf("WriteXLSX failed on empty history: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("exported workbook does not open: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue(ExportSheet, "J1")
	if err != nil {
		t.Fatalf("read header cell: %v", err)
	}
	if got != "Total Sleep Secs" {
		t.Errorf("expected last header column, got %q", got)
	}
}
