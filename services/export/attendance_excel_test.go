package exportsvc

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
)

func TestAttendanceWorkbook(t *testing.T) {
	std := student.Student{ID: "s1", Name: "Asha Rao", RollNo: "R-1", Class: "10A"}
	createdAt := time.Date(2024, 1, 10, 9, 15, 0, 0, time.UTC)
	records := []attendance.Attendance{
		{
			Date:      time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC),
			Status:    attendance.StatusAbsent,
			Remarks:   "sick leave",
			CreatedAt: createdAt.AddDate(0, 0, 1),
		},
		{
			Date:      time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
			Status:    attendance.StatusPresent,
			CreatedAt: createdAt,
		},
	}

	f, err := AttendanceWorkbook(std, records)
	require.NoError(t, err)
	defer f.Close()

	banner, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao (R-1) - 10A", banner)

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4) // banner + header + 2 records

	assert.Equal(t, header, rows[1])
	assert.Equal(t, []string{"2024-01-11", "Absent", "sick leave", "2024-01-11T09:15:00Z"}, rows[2])
	// trailing empty cells may be trimmed by the reader
	assert.Equal(t, []string{"2024-01-10", "Present"}, rows[3][:2])
}

func TestAttendanceWorkbook_empty(t *testing.T) {
	std := student.Student{Name: "Asha Rao", RollNo: "R-1", Class: "10A"}

	f, err := AttendanceWorkbook(std, nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 2) // banner + header only
}

func TestFilename(t *testing.T) {
	name := Filename(student.Student{RollNo: "R-1"})
	assert.True(t, strings.HasPrefix(name, "attendance_R-1_"))
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
}

func TestColName(t *testing.T) {
	assert.Equal(t, "A", colName(1))
	assert.Equal(t, "D", colName(4))
	assert.Equal(t, "Z", colName(26))
	assert.Equal(t, "AA", colName(27))
}
