package student

import (
	"time"

	"github.com/trezcool/mahudhurio/core"
)

type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RollNo    string    `json:"rollNo"`
	Class     string    `json:"class"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name   string `json:"name" validate:"required,max=50"`
	RollNo string `json:"rollNo" validate:"required,max=20"`
	Class  string `json:"class" validate:"required,max=20"`
}

func (ns *NewStudent) Validate(svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.RollNo = core.CleanString(ns.RollNo)
	ns.Class = core.CleanString(ns.Class)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ns.RollNo)
}

// UpdateStudent replaces a Student's fields; all fields are required.
type UpdateStudent struct {
	Name   string `json:"name" validate:"required,max=50"`
	RollNo string `json:"rollNo" validate:"required,max=20"`
	Class  string `json:"class" validate:"required,max=20"`
}

func (us *UpdateStudent) Validate(origStd Student, svc Service) error {
	us.Name = core.CleanString(us.Name)
	us.RollNo = core.CleanString(us.RollNo)
	us.Class = core.CleanString(us.Class)

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(us.RollNo, origStd)
}
