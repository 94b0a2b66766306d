package tests

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/trezcool/mahudhurio/core/attendance"
)

func Test_attendanceApi_create(t *testing.T) {
	app := setup(t)
	std := createStudent(t, "Asha Rao", "R-1", "10A")

	t.Run("ok", func(t *testing.T) {
		body := []byte(`{"studentId":"` + std.ID + `","date":"2024-01-10T09:00:00Z","status":"Present"}`)
		req, rec := newRequest(http.MethodPost, "/api/attendance", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		if env.Message != "Attendance marked successfully" {
			t.Errorf("message = %q", env.Message)
		}
		data, _ := env.Data.(map[string]interface{})
		if data["status"] != "Present" {
			t.Errorf("status = %v; want Present", data["status"])
		}
		summary, _ := data["student"].(map[string]interface{})
		if summary["rollNo"] != "R-1" {
			t.Errorf("student.rollNo = %v; want R-1", summary["rollNo"])
		}
	})

	t.Run("same day conflicts", func(t *testing.T) {
		tt := httpTest{
			body:     []byte(`{"studentId":"` + std.ID + `","date":"2024-01-10T16:30:00Z","status":"Absent"}`),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: "attendance already marked for this student on this date"}),
		}
		req, rec := newRequest(http.MethodPost, "/api/attendance", tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("next day succeeds", func(t *testing.T) {
		body := []byte(`{"studentId":"` + std.ID + `","date":"2024-01-11T09:00:00Z","status":"Absent","remarks":"sick leave"}`)
		req, rec := newRequest(http.MethodPost, "/api/attendance", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	// a bare date, as sent by an <input type="date"> client, binds like the
	// query param format and lands at midnight of that day
	t.Run("bare date in body", func(t *testing.T) {
		body := []byte(`{"studentId":"` + std.ID + `","date":"2024-01-12","status":"Present"}`)
		req, rec := newRequest(http.MethodPost, "/api/attendance", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		data, _ := env.Data.(map[string]interface{})
		if data["date"] != "2024-01-12T00:00:00Z" {
			t.Errorf("date = %v; want 2024-01-12T00:00:00Z", data["date"])
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		tt := httpTest{
			body:     []byte(`{"studentId":"ffffffffffffffffffffffff","status":"Present"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "student not found"}),
		}
		req, rec := newRequest(http.MethodPost, "/api/attendance", tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_attendanceApi_create_invalid(t *testing.T) {
	app := setup(t)
	std := createStudent(t, "Asha Rao", "R-1", "10A")

	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "validation failed",
				Errors: map[string]string{
					"studentId": "this field is required",
					"status":    "this field is required",
				},
			}),
		},
		{
			name: "unknown status", body: []byte(`{"studentId":"` + std.ID + `","status":"Late"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "validation failed",
				Errors:  map[string]string{"status": "status must be either Present or Absent"},
			}),
		},
		{
			name: "lowercase status", body: []byte(`{"studentId":"` + std.ID + `","status":"present"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "validation failed",
				Errors:  map[string]string{"status": "status must be either Present or Absent"},
			}),
		},
		{
			name: "malformed date", body: []byte(`{"studentId":"` + std.ID + `","date":"10/01/2024","status":"Present"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Errors: map[string]string{"date": "invalid date"}}),
		},
		{
			name: "remarks too long",
			body: []byte(`{"studentId":"` + std.ID + `","status":"Present","remarks":"` + strings.Repeat("r", 201) + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "validation failed",
				Errors:  map[string]string{"remarks": "remarks must be a maximum of 200 characters in length"},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/attendance", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_query(t *testing.T) {
	app := setup(t)
	std1 := createStudent(t, "Asha Rao", "R-1", "10A")
	std2 := createStudent(t, "Benoit K", "R-2", "10B")

	day10 := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	day11 := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	att1 := markAttendance(t, std1, day10, attendance.StatusPresent)
	time.Sleep(2 * time.Millisecond)
	att2 := markAttendance(t, std2, day10, attendance.StatusAbsent)
	time.Sleep(2 * time.Millisecond)
	att3 := markAttendance(t, std1, day11, attendance.StatusPresent)

	tests := []httpTest{
		{name: "all, newest first", path: "/api/attendance", wantData: marchallListEnvelope(t, att3, att2, att1)},
		{name: "by student", path: "/api/attendance?studentId=" + std1.ID, wantData: marchallListEnvelope(t, att3, att1)},
		{name: "by status", path: "/api/attendance?status=Absent", wantData: marchallListEnvelope(t, att2)},
		{name: "unknown status matches nothing", path: "/api/attendance?status=Late", wantData: marchallListEnvelope(t)},
		{name: "by date (bare)", path: "/api/attendance?date=2024-01-10", wantData: marchallListEnvelope(t, att2, att1)},
		{name: "by date (RFC3339)", path: "/api/attendance?date=2024-01-10T23%3A59%3A00Z", wantData: marchallListEnvelope(t, att2, att1)},
		{name: "by date, no records", path: "/api/attendance?date=2024-01-12", wantData: marchallListEnvelope(t)},
		{
			name: "combined", path: "/api/attendance?studentId=" + std1.ID + "&status=Present&date=2024-01-11",
			wantData: marchallListEnvelope(t, att3),
		},
		{
			name: "invalid date", path: "/api/attendance?date=not-a-date", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Errors: map[string]string{"date": "invalid date"}}),
		},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_queryByStudent(t *testing.T) {
	app := setup(t)
	std := createStudent(t, "Asha Rao", "R-1", "10A")
	other := createStudent(t, "Benoit K", "R-2", "10B")

	d := func(day int) time.Time { return time.Date(2024, 1, day, 9, 0, 0, 0, time.UTC) }
	att10 := markAttendance(t, std, d(10), attendance.StatusPresent)
	att11 := markAttendance(t, std, d(11), attendance.StatusAbsent)
	att12 := markAttendance(t, std, d(12), attendance.StatusPresent)
	markAttendance(t, other, d(11), attendance.StatusPresent)

	base := "/api/attendance/student/" + std.ID
	tests := []httpTest{
		{name: "all for student", path: base, wantData: marchallListEnvelope(t, att12, att11, att10)},
		{name: "from startDate", path: base + "?startDate=2024-01-11", wantData: marchallListEnvelope(t, att12, att11)},
		{name: "until endDate", path: base + "?endDate=2024-01-11T09%3A00%3A00Z", wantData: marchallListEnvelope(t, att11, att10)},
		{
			name: "window", path: base + "?startDate=2024-01-11&endDate=2024-01-11T23%3A59%3A59Z",
			wantData: marchallListEnvelope(t, att11),
		},
		{name: "unknown student is empty", path: "/api/attendance/student/ffffffffffffffffffffffff", wantData: marchallListEnvelope(t)},
		{
			name: "invalid startDate", path: base + "?startDate=nope", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Errors: map[string]string{"startDate": "invalid date"}}),
		},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_retrieve(t *testing.T) {
	app := setup(t)
	std := createStudent(t, "Asha Rao", "R-1", "10A")
	att := markAttendance(t, std, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), attendance.StatusPresent)

	t.Run("found", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, envelope{Success: true, Data: att})}
		req, rec := newRequest(http.MethodGet, "/api/attendance/"+att.ID)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("not found", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "attendance record not found"}),
		}
		req, rec := newRequest(http.MethodGet, "/api/attendance/ffffffffffffffffffffffff")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	// records survive their student's deletion; the summary reads back empty
	t.Run("orphaned record", func(t *testing.T) {
		if _, err := stdSvc.Delete(std.ID); err != nil {
			t.Fatalf("Delete(): %v", err)
		}
		orphan := att
		orphan.Student = attendance.StudentSummary{}

		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, envelope{Success: true, Data: orphan})}
		req, rec := newRequest(http.MethodGet, "/api/attendance/"+att.ID)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_attendanceApi_update(t *testing.T) {
	app := setup(t)
	std := createStudent(t, "Asha Rao", "R-1", "10A")
	att := markAttendance(t, std, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), attendance.StatusPresent)

	t.Run("ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, "/api/attendance/"+att.ID, []byte(`{"status":"Absent","remarks":"left early"}`))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		if env.Message != "Attendance updated successfully" {
			t.Errorf("message = %q", env.Message)
		}
		updated, err := attSvc.GetByID(att.ID)
		if err != nil {
			t.Fatalf("GetByID(): %v", err)
		}
		if updated.Status != attendance.StatusAbsent || updated.Remarks != "left early" {
			t.Errorf("record not updated: %+v", updated)
		}
		if !updated.Date.Equal(att.Date) {
			t.Errorf("date changed: %v", updated.Date)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		tt := httpTest{
			body: []byte(`{"status":"Tardy"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Message: "validation failed",
				Errors:  map[string]string{"status": "status must be either Present or Absent"},
			}),
		}
		req, rec := newRequest(http.MethodPut, "/api/attendance/"+att.ID, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("not found", func(t *testing.T) {
		tt := httpTest{
			body:     []byte(`{"status":"Present"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "attendance record not found"}),
		}
		req, rec := newRequest(http.MethodPut, "/api/attendance/ffffffffffffffffffffffff", tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_attendanceApi_destroy(t *testing.T) {
	app := setup(t)
	std := createStudent(t, "Asha Rao", "R-1", "10A")
	att := markAttendance(t, std, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), attendance.StatusPresent)

	tt := httpTest{
		wantCode: http.StatusOK,
		wantData: marchallEnvelope(t, "Attendance record deleted successfully", att),
	}
	req, rec := newRequest(http.MethodDelete, "/api/attendance/"+att.ID)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	t.Run("already deleted", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "attendance record not found"}),
		}
		req, rec := newRequest(http.MethodDelete, "/api/attendance/"+att.ID)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_attendanceApi_export(t *testing.T) {
	app := setup(t)
	std := createStudent(t, "Asha Rao", "R-1", "10A")
	markAttendance(t, std, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), attendance.StatusPresent)
	markAttendance(t, std, time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC), attendance.StatusAbsent)

	t.Run("ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/attendance/student/"+std.ID+"/export")
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
			t.Errorf("Content-Type = %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attendance_R-1_") {
			t.Errorf("Content-Disposition = %q", cd)
		}

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("OpenReader(): %v", err)
		}
		defer f.Close()
		rows, err := f.GetRows("Attendance")
		if err != nil {
			t.Fatalf("GetRows(): %v", err)
		}
		if len(rows) != 4 { // banner + header + 2 records
			t.Errorf("rows = %d; want 4", len(rows))
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "student not found"}),
		}
		req, rec := newRequest(http.MethodGet, "/api/attendance/student/ffffffffffffffffffffffff/export")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
