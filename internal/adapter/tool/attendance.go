package tool

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/tracer"
)

// attendanceLimit caps attendance rows per query. Attendance logs grow
// fast, so the cap is higher than the record search limit.
const attendanceLimit = 50

// AttendanceBackend abstracts attendance log reads.
type AttendanceBackend interface {
	ListAttendance(ctx context.Context, username string, limit int) ([]domain.AttendanceLog, error)
}

// GetAttendanceTool reads check-in/check-out logs.
type GetAttendanceTool struct {
	backend AttendanceBackend
	logger  *slog.Logger
}

func NewGetAttendanceTool(backend AttendanceBackend, logger *slog.Logger) *GetAttendanceTool {
	return &GetAttendanceTool{backend: backend, logger: logger}
}

func (t *GetAttendanceTool) Name() string { return "get_attendance" }
func (t *GetAttendanceTool) Description() string {
	return "Read check-in/check-out logs, newest first. Optionally filter by username."
}

func (t *GetAttendanceTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"username": {
					"type": "string",
					"description": "Limit results to one team member"
				}
			}
		}`),
	}
}

type getAttendanceParams struct {
	Username string `json:"username,omitempty"`
}

func (t *GetAttendanceTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.get_attendance", t.logger, params,
		func(ctx context.Context, span trace.Span, p getAttendanceParams) (any, error) {
			logs, err := t.backend.ListAttendance(ctx, p.Username, attendanceLimit)
			if err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.IntAttr("result.count", len(logs)))
			if len(logs) == 0 {
				return TextResult("No attendance records found."), nil
			}
			return logs, nil
		})
}
