package dummydb

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
)

type (
	DB struct {
		student    *studentTable
		attendance *attendanceTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Attendance
	}
)

func Open() (*DB, error) {
	db := &DB{
		student:    &studentTable{table: make(map[string]*student.Student)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Attendance)},
	}
	return db, nil
}

var pkCount uint64

// newPK mimics the store's generated object ids. The counter is shared by
// both tables while their locks are separate, hence the atomic.
func newPK() string {
	return fmt.Sprintf("%024x", atomic.AddUint64(&pkCount, 1))
}
