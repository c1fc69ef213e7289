package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/tracer"
)

// TaskBackend abstracts sub-task creation under jobs.
type TaskBackend interface {
	InsertSubTask(ctx context.Context, t domain.SubTask) (*domain.SubTask, error)
	InsertSubTaskBatch(ctx context.Context, jobID int64, tasks []domain.SubTask) ([]domain.SubTask, error)
}

const maxBulkTasks = 50

// CreateTaskTool adds a single sub-task to a job.
type CreateTaskTool struct {
	backend TaskBackend
	logger  *slog.Logger
}

func NewCreateTaskTool(backend TaskBackend, logger *slog.Logger) *CreateTaskTool {
	return &CreateTaskTool{backend: backend, logger: logger}
}

func (t *CreateTaskTool) Name() string { return "create_task" }
func (t *CreateTaskTool) Description() string {
	return "Add a sub-task to an existing job. Requires the job id and a title."
}

func (t *CreateTaskTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"job_id":          {"type": "integer", "description": "Existing job id"},
				"title":           {"type": "string", "description": "What needs doing"},
				"priority":        {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
				"due_date":        {"type": "string", "description": "YYYY-MM-DD"},
				"estimated_hours": {"type": "number", "minimum": 0}
			},
			"required": ["job_id", "title"]
		}`),
	}
}

type createTaskParams struct {
	JobID          int64   `json:"job_id"`
	Title          string  `json:"title"`
	Priority       string  `json:"priority,omitempty"`
	DueDate        string  `json:"due_date,omitempty"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
}

func (t *CreateTaskTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.create_task", t.logger, params,
		func(ctx context.Context, span trace.Span, p createTaskParams) (any, error) {
			if err := ValidatePositive("job_id", p.JobID); err != nil {
				return nil, err
			}
			if err := RequireField("title", p.Title); err != nil {
				return nil, err
			}
			if err := ValidateEnum("priority", p.Priority, priorities...); err != nil {
				return nil, err
			}
			task, err := t.backend.InsertSubTask(ctx, domain.SubTask{
				JobID:          p.JobID,
				Title:          p.Title,
				Priority:       p.Priority,
				DueDate:        p.DueDate,
				EstimatedHours: p.EstimatedHours,
			})
			if err != nil {
				return nil, err
			}
			t.logger.Info("task created", "id", task.ID, "job_id", task.JobID)
			span.SetAttributes(tracer.IntAttr("record.id", int(task.ID)))
			return task, nil
		})
}

// BulkCreateTasksTool adds several sub-tasks to a job in one transaction.
type BulkCreateTasksTool struct {
	backend TaskBackend
	logger  *slog.Logger
}

func NewBulkCreateTasksTool(backend TaskBackend, logger *slog.Logger) *BulkCreateTasksTool {
	return &BulkCreateTasksTool{backend: backend, logger: logger}
}

func (t *BulkCreateTasksTool) Name() string { return "bulk_create_tasks" }
func (t *BulkCreateTasksTool) Description() string {
	return "Add several sub-tasks to one job at once. All tasks are created together or not at all."
}

func (t *BulkCreateTasksTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"job_id": {"type": "integer", "description": "Existing job id"},
				"titles": {
					"type": "array",
					"items": {"type": "string"},
					"minItems": 1,
					"description": "One title per task to create"
				},
				"priority": {"type": "string", "enum": ["low", "medium", "high", "urgent"], "description": "Applied to every created task"}
			},
			"required": ["job_id", "titles"]
		}`),
	}
}

type bulkCreateTasksParams struct {
	JobID    int64    `json:"job_id"`
	Titles   []string `json:"titles"`
	Priority string   `json:"priority,omitempty"`
}

func (t *BulkCreateTasksTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.bulk_create_tasks", t.logger, params,
		func(ctx context.Context, span trace.Span, p bulkCreateTasksParams) (any, error) {
			if err := ValidatePositive("job_id", p.JobID); err != nil {
				return nil, err
			}
			if len(p.Titles) == 0 {
				return nil, fmt.Errorf("'titles' is required and must not be empty")
			}
			if len(p.Titles) > maxBulkTasks {
				return nil, fmt.Errorf("too many tasks: %d (max %d)", len(p.Titles), maxBulkTasks)
			}
			if err := ValidateEnum("priority", p.Priority, priorities...); err != nil {
				return nil, err
			}
			tasks := make([]domain.SubTask, 0, len(p.Titles))
			for _, title := range p.Titles {
				if title == "" {
					return nil, fmt.Errorf("'titles' must not contain empty entries")
				}
				tasks = append(tasks, domain.SubTask{
					JobID:    p.JobID,
					Title:    title,
					Priority: p.Priority,
				})
			}
			created, err := t.backend.InsertSubTaskBatch(ctx, p.JobID, tasks)
			if err != nil {
				return nil, err
			}
			t.logger.Info("tasks created", "job_id", p.JobID, "count", len(created))
			span.SetAttributes(tracer.IntAttr("result.count", len(created)))
			return created, nil
		})
}
