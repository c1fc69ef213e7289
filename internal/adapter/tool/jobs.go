package tool

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/tracer"
)

// JobBackend abstracts the job record operations.
type JobBackend interface {
	SearchJobs(ctx context.Context, search, status string, limit int) ([]domain.Job, error)
	InsertJob(ctx context.Context, j domain.Job) (*domain.Job, error)
	UpdateJob(ctx context.Context, id int64, p domain.JobPatch) (*domain.Job, error)
}

var jobStatuses = []string{"pending", "in_progress", "on_hold", "completed", "cancelled"}
var priorities = []string{"low", "medium", "high", "urgent"}

// GetJobsTool searches job records.
type GetJobsTool struct {
	backend JobBackend
	logger  *slog.Logger
}

func NewGetJobsTool(backend JobBackend, logger *slog.Logger) *GetJobsTool {
	return &GetJobsTool{backend: backend, logger: logger}
}

func (t *GetJobsTool) Name() string { return "get_jobs" }
func (t *GetJobsTool) Description() string {
	return "Search jobs by title or description, optionally filtered by status. Omit both to list the most recent jobs."
}

func (t *GetJobsTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Substring to match against job title or description"
				},
				"status": {
					"type": "string",
					"enum": ["pending", "in_progress", "on_hold", "completed", "cancelled"]
				}
			}
		}`),
	}
}

type getJobsParams struct {
	Query  string `json:"query,omitempty"`
	Status string `json:"status,omitempty"`
}

func (t *GetJobsTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.get_jobs", t.logger, params,
		func(ctx context.Context, span trace.Span, p getJobsParams) (any, error) {
			if err := ValidateEnum("status", p.Status, jobStatuses...); err != nil {
				return nil, err
			}
			jobs, err := t.backend.SearchJobs(ctx, p.Query, p.Status, defaultSearchLimit)
			if err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.IntAttr("result.count", len(jobs)))
			if len(jobs) == 0 {
				return TextResult("No jobs found."), nil
			}
			return jobs, nil
		})
}

// CreateJobTool opens a new job.
type CreateJobTool struct {
	backend JobBackend
	logger  *slog.Logger
}

func NewCreateJobTool(backend JobBackend, logger *slog.Logger) *CreateJobTool {
	return &CreateJobTool{backend: backend, logger: logger}
}

func (t *CreateJobTool) Name() string { return "create_job" }
func (t *CreateJobTool) Description() string {
	return "Open a new job. Requires a title; status defaults to pending and priority to medium."
}

func (t *CreateJobTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title":           {"type": "string", "description": "Short job title"},
				"description":     {"type": "string"},
				"customer_id":     {"type": "integer", "description": "Existing customer id, if known"},
				"status":          {"type": "string", "enum": ["pending", "in_progress", "on_hold", "completed", "cancelled"]},
				"priority":        {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
				"scheduled_date":  {"type": "string", "description": "YYYY-MM-DD"},
				"due_date":        {"type": "string", "description": "YYYY-MM-DD"},
				"estimated_hours": {"type": "number", "minimum": 0}
			},
			"required": ["title"]
		}`),
	}
}

type createJobParams struct {
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	CustomerID     int64   `json:"customer_id,omitempty"`
	Status         string  `json:"status,omitempty"`
	Priority       string  `json:"priority,omitempty"`
	ScheduledDate  string  `json:"scheduled_date,omitempty"`
	DueDate        string  `json:"due_date,omitempty"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
}

func (t *CreateJobTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.create_job", t.logger, params,
		func(ctx context.Context, span trace.Span, p createJobParams) (any, error) {
			if err := RequireField("title", p.Title); err != nil {
				return nil, err
			}
			if err := ValidateEnum("status", p.Status, jobStatuses...); err != nil {
				return nil, err
			}
			if err := ValidateEnum("priority", p.Priority, priorities...); err != nil {
				return nil, err
			}
			job, err := t.backend.InsertJob(ctx, domain.Job{
				Title:          p.Title,
				Description:    p.Description,
				CustomerID:     p.CustomerID,
				Status:         p.Status,
				Priority:       p.Priority,
				ScheduledDate:  p.ScheduledDate,
				DueDate:        p.DueDate,
				EstimatedHours: p.EstimatedHours,
			})
			if err != nil {
				return nil, err
			}
			t.logger.Info("job created", "id", job.ID, "title", job.Title)
			span.SetAttributes(tracer.IntAttr("record.id", int(job.ID)))
			return job, nil
		})
}

// UpdateJobTool applies a partial update to a job.
type UpdateJobTool struct {
	backend JobBackend
	logger  *slog.Logger
}

func NewUpdateJobTool(backend JobBackend, logger *slog.Logger) *UpdateJobTool {
	return &UpdateJobTool{backend: backend, logger: logger}
}

func (t *UpdateJobTool) Name() string { return "update_job" }
func (t *UpdateJobTool) Description() string {
	return "Update an existing job by id. Only the supplied fields change; omitted fields are left as they are."
}

func (t *UpdateJobTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id":              {"type": "integer", "description": "Job id"},
				"title":           {"type": "string"},
				"description":     {"type": "string"},
				"status":          {"type": "string", "enum": ["pending", "in_progress", "on_hold", "completed", "cancelled"]},
				"priority":        {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
				"scheduled_date":  {"type": "string"},
				"due_date":        {"type": "string"},
				"estimated_hours": {"type": "number", "minimum": 0},
				"used_hours":      {"type": "number", "minimum": 0}
			},
			"required": ["id"]
		}`),
	}
}

type updateJobParams struct {
	ID int64 `json:"id"`
	domain.JobPatch
}

func (t *UpdateJobTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.update_job", t.logger, params,
		func(ctx context.Context, span trace.Span, p updateJobParams) (any, error) {
			if err := ValidatePositive("id", p.ID); err != nil {
				return nil, err
			}
			if p.Status != nil {
				if err := ValidateEnum("status", *p.Status, jobStatuses...); err != nil {
					return nil, err
				}
			}
			if p.Priority != nil {
				if err := ValidateEnum("priority", *p.Priority, priorities...); err != nil {
					return nil, err
				}
			}
			job, err := t.backend.UpdateJob(ctx, p.ID, p.JobPatch)
			if err != nil {
				return nil, err
			}
			t.logger.Info("job updated", "id", job.ID)
			span.SetAttributes(tracer.IntAttr("record.id", int(job.ID)))
			return job, nil
		})
}
