package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Response envelope shared by all endpoints:
// success: {"success": true, "count"?, "message"?, "data"}
// error:   {"success": false, "message", "errors"?}

type successResponse struct {
	Success bool        `json:"success"`
	Count   *int        `json:"count,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respond(ctx echo.Context, code int, data interface{}, msg ...string) error {
	resp := successResponse{Success: true, Data: data}
	if len(msg) > 0 {
		resp.Message = msg[0]
	}
	return ctx.JSON(code, resp)
}

func respondList(ctx echo.Context, code int, data interface{}, count int) error {
	return ctx.JSON(code, successResponse{Success: true, Count: &count, Data: data})
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseDate accepts RFC3339 instants and bare dates; bare dates are
// interpreted in the service's timezone.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
