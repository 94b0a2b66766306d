package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	. "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
	dummydb "github.com/trezcool/mahudhurio/storage/dummy"
)

var (
	stdSvc student.Service
	attSvc attendance.Service
)

func setup(t *testing.T) Server {
	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	stdSvc = student.NewService(dummydb.NewStudentRepository(db))
	attSvc = attendance.NewService(dummydb.NewAttendanceRepository(db, time.UTC), stdSvc, time.UTC)

	// set up server
	return NewServer(
		&Options{
			TestMode:       true,
			DisableReqLogs: true,
			Timezone:       time.UTC,
			StudentSvc:     stdSvc,
			AttendanceSvc:  attSvc,
		},
	)
}

func createStudent(t *testing.T, name, rollNo, class string) student.Student {
	std, err := stdSvc.Create(student.NewStudent{Name: name, RollNo: rollNo, Class: class})
	if err != nil {
		t.Fatalf("createStudent(): %v", err)
	}
	return std
}

func markAttendance(t *testing.T, std student.Student, date time.Time, status attendance.Status) attendance.Attendance {
	att, err := attSvc.Mark(attendance.NewAttendance{StudentID: std.ID, Date: date, Status: status})
	if err != nil {
		t.Fatalf("markAttendance(): %v", err)
	}
	return att
}

// envelope mirrors the API's success response shape.
type envelope struct {
	Success bool        `json:"success"`
	Count   *int        `json:"count,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// httpErr mirrors the API's error response shape.
type httpErr struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func intPtr(n int) *int { return &n }

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallEnvelope(t *testing.T, msg string, data interface{}) []byte {
	return marchallObj(t, envelope{Success: true, Message: msg, Data: data})
}

func marchallListEnvelope(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	return marchallObj(t, envelope{Success: true, Count: intPtr(len(objs)), Data: objs})
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decodeEnvelope(): %v; body %s", err, rec.Body.String())
	}
	return env
}
