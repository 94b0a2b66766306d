package student

import (
	"errors"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrNotFound     = errors.New("student not found")
	ErrRollNoExists = errors.New("a student with this roll number already exists")
)

type (
	Repository interface {
		CheckRollNoUniqueness(rollNo string, excludedStudents ...Student) error
		CreateStudent(std Student) (Student, error)
		// QueryAllStudents returns all students ordered by creation time descending.
		QueryAllStudents() ([]Student, error)
		GetStudentByID(id string) (Student, error)
		UpdateStudent(std Student) (Student, error)
		// DeleteStudent removes a student and returns it. Attendance records
		// referencing the student are left untouched.
		DeleteStudent(id string) (Student, error)
	}

	Service interface {
		CheckUniqueness(rollNo string, exclStudents ...Student) error
		Create(ns NewStudent) (Student, error)
		QueryAll() ([]Student, error)
		GetByID(id string) (Student, error)
		Update(id string, us UpdateStudent) (Student, error)
		Delete(id string) (Student, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(rollNo string, exclStudents ...Student) error {
	if err := svc.repo.CheckRollNoUniqueness(rollNo, exclStudents...); err != nil {
		if errors.Is(err, ErrRollNoExists) {
			return core.NewConflictError(err, core.FieldError{Field: "rollNo", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std := Student{
		Name:      ns.Name,
		RollNo:    ns.RollNo,
		Class:     ns.Class,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateStudent(std)
}

func (svc *service) QueryAll() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

func (svc *service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *service) Update(id string, us UpdateStudent) (Student, error) {
	std := Student{
		ID:        id,
		Name:      us.Name,
		RollNo:    us.RollNo,
		Class:     us.Class,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(std)
}

func (svc *service) Delete(id string) (Student, error) {
	return svc.repo.DeleteStudent(id)
}
