package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
	exportsvc "github.com/trezcool/mahudhurio/services/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type attendanceApi struct {
	svc    attendance.Service
	stdSvc student.Service
	loc    *time.Location
}

// markAttendanceRequest carries the create payload. The date comes in as a
// string so that bare dates are accepted the same way as on query params.
type markAttendanceRequest struct {
	StudentID string            `json:"studentId"`
	Date      string            `json:"date"`
	Status    attendance.Status `json:"status"`
	Remarks   string            `json:"remarks"`
}

func registerAttendanceAPI(g *echo.Group, svc attendance.Service, stdSvc student.Service, loc *time.Location) {
	api := attendanceApi{svc: svc, stdSvc: stdSvc, loc: loc}

	ag := g.Group("/attendance")
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.GET("/student/:studentId", api.queryByStudent)
	ag.GET("/student/:studentId/export", api.exportByStudent)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := attendance.QueryFilter{
		StudentID: ctx.QueryParam("studentId"),
		Status:    ctx.QueryParam("status"),
	}
	if raw := ctx.QueryParam("date"); raw != "" {
		date, err := parseDate(raw, api.loc)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date"})
		}
		filter.Date = date
	}

	records, err := api.svc.Filter(filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return respondList(ctx, http.StatusOK, records, len(records))
}

func (api *attendanceApi) create(ctx echo.Context) error {
	var req markAttendanceRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to markAttendanceRequest")
	}
	data := attendance.NewAttendance{
		StudentID: req.StudentID,
		Status:    req.Status,
		Remarks:   req.Remarks,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date, api.loc)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date"})
		}
		data.Date = date
	}
	if err := data.Validate(); err != nil {
		return err
	}

	att, err := api.svc.Mark(data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, att, "Attendance marked successfully")
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	att, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, att)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	var data attendance.UpdateAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	att, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, att, "Attendance updated successfully")
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	att, err := api.svc.Delete(ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, att, "Attendance record deleted successfully")
}

func (api *attendanceApi) queryByStudent(ctx echo.Context) error {
	filter, err := api.studentRangeFilter(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.Filter(filter)
	if err != nil {
		return errors.Wrap(err, "querying student attendance")
	}
	return respondList(ctx, http.StatusOK, records, len(records))
}

func (api *attendanceApi) exportByStudent(ctx echo.Context) error {
	std, err := api.stdSvc.GetByID(ctx.Param("studentId"))
	if err != nil {
		return err
	}
	filter, err := api.studentRangeFilter(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.Filter(filter)
	if err != nil {
		return errors.Wrap(err, "querying student attendance")
	}

	wb, err := exportsvc.AttendanceWorkbook(std, records)
	if err != nil {
		return errors.Wrap(err, "building attendance workbook")
	}
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return errors.Wrap(err, "writing attendance workbook")
	}

	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", exportsvc.Filename(std)),
	)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (api *attendanceApi) studentRangeFilter(ctx echo.Context) (attendance.QueryFilter, error) {
	filter := attendance.QueryFilter{StudentID: ctx.Param("studentId")}
	if raw := ctx.QueryParam("startDate"); raw != "" {
		date, err := parseDate(raw, api.loc)
		if err != nil {
			return filter, core.NewValidationError(nil, core.FieldError{Field: "startDate", Error: "invalid date"})
		}
		filter.StartDate = date
	}
	if raw := ctx.QueryParam("endDate"); raw != "" {
		date, err := parseDate(raw, api.loc)
		if err != nil {
			return filter, core.NewValidationError(nil, core.FieldError{Field: "endDate", Error: "invalid date"})
		}
		filter.EndDate = date
	}
	return filter, nil
}
