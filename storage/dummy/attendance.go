package dummydb

import (
	"sort"
	"time"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db       *attendanceTable
	students *studentTable
	loc      *time.Location
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB, loc *time.Location) attendance.Repository {
	if loc == nil {
		loc = time.Local
	}
	return &attendanceRepository{db: db.attendance, students: db.student, loc: loc}
}

// joined refreshes the student summary on att. Orphaned records (student
// deleted) read back with a zero-value summary.
func (repo *attendanceRepository) joined(att attendance.Attendance) attendance.Attendance {
	repo.students.RLock()
	defer repo.students.RUnlock()

	att.Student = attendance.StudentSummary{}
	if std, ok := repo.students.table[att.StudentID]; ok {
		att.Student = attendance.Summarize(*std)
	}
	return att
}

func (repo *attendanceRepository) CreateAttendance(att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// unique (student, day), as the document store's compound index enforces
	for _, existing := range repo.db.table {
		if existing.StudentID == att.StudentID && existing.Day.Equal(att.Day) {
			return attendance.Attendance{}, attendance.ErrAlreadyMarked
		}
	}

	att.ID = newPK()
	repo.db.table[att.ID] = &att
	return repo.joined(att), nil
}

func (repo *attendanceRepository) GetAttendanceByID(id string) (attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if att, ok := repo.db.table[id]; ok {
		return repo.joined(*att), nil
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FindByStudentAndDay(studentID string, day attendance.DayInterval) (attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, att := range repo.db.table {
		if att.StudentID == studentID && day.Contains(att.Date) {
			return repo.joined(*att), nil
		}
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

// matches is a pure predicate from the filter struct; storage backends each
// translate QueryFilter on their own but must agree on these semantics.
func (repo *attendanceRepository) matches(filter attendance.QueryFilter, att attendance.Attendance) bool {
	if filter.StudentID != "" && att.StudentID != filter.StudentID {
		return false
	}
	if filter.Status != "" && string(att.Status) != filter.Status {
		return false
	}
	if !filter.Date.IsZero() {
		if !attendance.Day(filter.Date, repo.loc).Contains(att.Date) {
			return false
		}
	} else {
		if !filter.StartDate.IsZero() && att.Date.Before(filter.StartDate) {
			return false
		}
		if !filter.EndDate.IsZero() && att.Date.After(filter.EndDate) {
			return false
		}
	}
	return true
}

func (repo *attendanceRepository) FilterAttendance(filter attendance.QueryFilter) ([]attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Attendance, 0, len(repo.db.table))
	for _, att := range repo.db.table {
		if repo.matches(filter, *att) {
			records = append(records, repo.joined(*att))
		}
	}

	withCreatedAt := !filter.HasRange()
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		if withCreatedAt {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return false
	})
	return records, nil
}

func (repo *attendanceRepository) UpdateAttendance(att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[att.ID]
	if !ok {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	orig.Status = att.Status
	orig.Remarks = att.Remarks
	orig.UpdatedAt = att.UpdatedAt
	return repo.joined(*orig), nil
}

func (repo *attendanceRepository) DeleteAttendance(id string) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	att, ok := repo.db.table[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	delete(repo.db.table, id)
	return repo.joined(*att), nil
}
