package attendance

import (
	"errors"
	"time"

	"github.com/trezcool/mahudhurio/core/student"
)

var (
	// errors
	ErrNotFound      = errors.New("attendance record not found")
	ErrAlreadyMarked = errors.New("attendance already marked for this student on this date")
)

type (
	Repository interface {
		// CreateAttendance inserts a record. The store's unique constraint on
		// (student, day) is the authority on duplicates: a constraint
		// violation is reported as ErrAlreadyMarked.
		CreateAttendance(att Attendance) (Attendance, error)
		GetAttendanceByID(id string) (Attendance, error)
		FindByStudentAndDay(studentID string, day DayInterval) (Attendance, error)
		// FilterAttendance applies AND operation on available QueryFilter
		// fields. Results are ordered by date descending, then creation time
		// descending when no start/end range filter is active.
		FilterAttendance(filter QueryFilter) ([]Attendance, error)
		// UpdateAttendance replaces status and remarks of the record with
		// att.ID and returns it rejoined with its student summary.
		UpdateAttendance(att Attendance) (Attendance, error)
		DeleteAttendance(id string) (Attendance, error)
	}

	Service interface {
		Mark(na NewAttendance) (Attendance, error)
		GetByID(id string) (Attendance, error)
		Filter(filter QueryFilter) ([]Attendance, error)
		Update(id string, ua UpdateAttendance) (Attendance, error)
		Delete(id string) (Attendance, error)
		DayOf(t time.Time) DayInterval
	}

	service struct {
		repo     Repository
		students student.Service
		loc      *time.Location
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students student.Service, loc *time.Location) Service {
	if loc == nil {
		loc = time.Local
	}
	return &service{
		repo:     repo,
		students: students,
		loc:      loc,
	}
}

// DayOf returns the calendar-day interval containing t.
func (svc *service) DayOf(t time.Time) DayInterval {
	return Day(t, svc.loc)
}

func (svc *service) Mark(na NewAttendance) (Attendance, error) {
	std, err := svc.students.GetByID(na.StudentID)
	if err != nil {
		return Attendance{}, err
	}

	date := na.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = date.In(svc.loc)
	day := svc.DayOf(date)

	// Advisory fast path only; two concurrent marks can both pass this
	// check. The store's unique (student, day) index settles the race and
	// the repository reports its violation as the same ErrAlreadyMarked.
	if _, err := svc.repo.FindByStudentAndDay(std.ID, day); err == nil {
		return Attendance{}, ErrAlreadyMarked
	} else if !errors.Is(err, ErrNotFound) {
		return Attendance{}, err
	}

	now := time.Now().UTC()
	att := Attendance{
		StudentID: std.ID,
		Student:   Summarize(std),
		Date:      date,
		Day:       day.Start,
		Status:    na.Status,
		Remarks:   na.Remarks,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateAttendance(att)
}

func (svc *service) GetByID(id string) (Attendance, error) {
	return svc.repo.GetAttendanceByID(id)
}

func (svc *service) Filter(filter QueryFilter) ([]Attendance, error) {
	filter.Clean()
	return svc.repo.FilterAttendance(filter)
}

func (svc *service) Update(id string, ua UpdateAttendance) (Attendance, error) {
	att := Attendance{
		ID:        id,
		Status:    ua.Status,
		Remarks:   ua.Remarks,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateAttendance(att)
}

func (svc *service) Delete(id string) (Attendance, error) {
	return svc.repo.DeleteAttendance(id)
}
