package exportsvc

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
)

const sheetName = "Attendance"

var header = []string{"Date", "Status", "Remarks", "Marked At"}

// AttendanceWorkbook builds an Excel workbook listing a student's attendance
// records, one row per record in the order given.
func AttendanceWorkbook(std student.Student, records []attendance.Attendance) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	// student banner above the table
	banner := fmt.Sprintf("%s (%s) - %s", std.Name, std.RollNo, std.Class)
	if err := f.SetCellStr(sheetName, "A1", banner); err != nil {
		return nil, fmt.Errorf("set banner: %w", err)
	}

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	for col, h := range header {
		cell := fmt.Sprintf("%s2", colName(col+1))
		if err := f.SetCellStr(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	end := colName(len(header)) + "2"
	_ = f.SetCellStyle(sheetName, "A1", end, bold)
	_ = f.AutoFilter(sheetName, "A2:"+end, nil)

	rows := make([][]string, 0, len(records))
	for _, att := range records {
		rows = append(rows, []string{
			att.Date.Format("2006-01-02"),
			string(att.Status),
			att.Remarks,
			att.CreatedAt.Format(time.RFC3339),
		})
	}
	for r, row := range rows {
		for c, val := range row {
			cell := fmt.Sprintf("%s%d", colName(c+1), r+3)
			if err := f.SetCellStr(sheetName, cell, val); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	// heuristic width: header length vs the first rows
	for c := 1; c <= len(header); c++ {
		maxim := len(header[c-1])
		for r := 0; r < minim(50, len(rows)); r++ {
			if l := len(rows[r][c-1]); l > maxim {
				maxim = l
			}
		}
		w := float64(maxim) * 0.9
		if w < 12 {
			w = 12
		}
		if w > 40 {
			w = 40
		}
		_ = f.SetColWidth(sheetName, colName(c), colName(c), w)
	}
	return f, nil
}

// Filename returns the download name for a student's attendance workbook.
func Filename(std student.Student) string {
	return fmt.Sprintf("attendance_%s_%s.xlsx", std.RollNo, time.Now().Format("2006-01-02"))
}

// helpers
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}
