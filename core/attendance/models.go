package attendance

import (
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/student"
)

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

var Statuses = []Status{StatusPresent, StatusAbsent}

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent:
		return true
	}
	return false
}

// StudentSummary is the slice of Student fields joined onto Attendance reads.
type StudentSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RollNo string `json:"rollNo"`
	Class  string `json:"class"`
}

func Summarize(std student.Student) StudentSummary {
	return StudentSummary{
		ID:     std.ID,
		Name:   std.Name,
		RollNo: std.RollNo,
		Class:  std.Class,
	}
}

type Attendance struct {
	ID        string         `json:"id"`
	StudentID string         `json:"-"`
	Student   StudentSummary `json:"student"` // zero-value when the student was deleted
	Date      time.Time      `json:"date"`
	Day       time.Time      `json:"-"` // start of Date's calendar day; uniqueness key
	Status    Status         `json:"status"`
	Remarks   string         `json:"remarks,omitempty"`
	CreatedAt time.Time      `json:"createdAt"` // UTC
	UpdatedAt time.Time      `json:"updatedAt"` // UTC
}

// NewAttendance contains information needed to mark attendance for a student.
// Date is optional and defaults to the current instant.
type NewAttendance struct {
	StudentID string    `json:"studentId" validate:"required"`
	Date      time.Time `json:"date"`
	Status    Status    `json:"status" validate:"required,attstatus"`
	Remarks   string    `json:"remarks" validate:"omitempty,max=200"`
}

func (na *NewAttendance) Validate() error {
	na.StudentID = core.CleanString(na.StudentID)
	na.Remarks = core.CleanString(na.Remarks)
	return core.Validate.Struct(na)
}

// UpdateAttendance mutates status and remarks only; the student reference
// and date are immutable once marked and deliberately not accepted here.
type UpdateAttendance struct {
	Status  Status `json:"status" validate:"required,attstatus"`
	Remarks string `json:"remarks" validate:"omitempty,max=200"`
}

func (ua *UpdateAttendance) Validate() error {
	ua.Remarks = core.CleanString(ua.Remarks)
	return core.Validate.Struct(ua)
}

// QueryFilter restricts attendance listings; each field is independently
// optional. Status is a pass-through filter and is not validated.
type QueryFilter struct {
	StudentID string
	Status    string
	Date      time.Time // single calendar day
	StartDate time.Time // inclusive
	EndDate   time.Time // inclusive
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Status == "" &&
		qf.Date.IsZero() && qf.StartDate.IsZero() && qf.EndDate.IsZero()
}

// HasRange reports whether the start/end range filter is active.
func (qf *QueryFilter) HasRange() bool {
	return !qf.StartDate.IsZero() || !qf.EndDate.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Status = core.CleanString(qf.Status)
}
