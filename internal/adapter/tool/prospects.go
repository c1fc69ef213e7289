package tool

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/tracer"
)

// ProspectBackend abstracts the sales pipeline operations.
type ProspectBackend interface {
	SearchProspects(ctx context.Context, search, stage string, limit int) ([]domain.Prospect, error)
	InsertProspect(ctx context.Context, p domain.Prospect) (*domain.Prospect, error)
	UpdateProspect(ctx context.Context, id int64, p domain.ProspectPatch) (*domain.Prospect, error)
}

var prospectStages = []string{"lead", "contacted", "quoted", "negotiating", "won", "lost"}

// GetProspectsTool searches the sales pipeline.
type GetProspectsTool struct {
	backend ProspectBackend
	logger  *slog.Logger
}

func NewGetProspectsTool(backend ProspectBackend, logger *slog.Logger) *GetProspectsTool {
	return &GetProspectsTool{backend: backend, logger: logger}
}

func (t *GetProspectsTool) Name() string { return "get_prospects" }
func (t *GetProspectsTool) Description() string {
	return "Search sales prospects by company or contact name, optionally filtered by pipeline stage."
}

func (t *GetProspectsTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Substring to match against company or contact name"
				},
				"stage": {
					"type": "string",
					"enum": ["lead", "contacted", "quoted", "negotiating", "won", "lost"]
				}
			}
		}`),
	}
}

type getProspectsParams struct {
	Query string `json:"query,omitempty"`
	Stage string `json:"stage,omitempty"`
}

func (t *GetProspectsTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.get_prospects", t.logger, params,
		func(ctx context.Context, span trace.Span, p getProspectsParams) (any, error) {
			if err := ValidateEnum("stage", p.Stage, prospectStages...); err != nil {
				return nil, err
			}
			prospects, err := t.backend.SearchProspects(ctx, p.Query, p.Stage, defaultSearchLimit)
			if err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.IntAttr("result.count", len(prospects)))
			if len(prospects) == 0 {
				return TextResult("No prospects found."), nil
			}
			return prospects, nil
		})
}

// CreateProspectTool adds a prospect to the pipeline.
type CreateProspectTool struct {
	backend ProspectBackend
	logger  *slog.Logger
}

func NewCreateProspectTool(backend ProspectBackend, logger *slog.Logger) *CreateProspectTool {
	return &CreateProspectTool{backend: backend, logger: logger}
}

func (t *CreateProspectTool) Name() string { return "create_prospect" }
func (t *CreateProspectTool) Description() string {
	return "Add a new sales prospect. Requires a company name; stage defaults to lead."
}

func (t *CreateProspectTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"company":      {"type": "string", "description": "Company name"},
				"contact_name": {"type": "string"},
				"email":        {"type": "string"},
				"phone":        {"type": "string"},
				"stage":        {"type": "string", "enum": ["lead", "contacted", "quoted", "negotiating", "won", "lost"]},
				"priority":     {"type": "integer", "minimum": 1, "maximum": 5, "description": "1 (highest) to 5 (lowest)"},
				"notes":        {"type": "string"}
			},
			"required": ["company"]
		}`),
	}
}

type createProspectParams struct {
	Company     string `json:"company"`
	ContactName string `json:"contact_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func (t *CreateProspectTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.create_prospect", t.logger, params,
		func(ctx context.Context, span trace.Span, p createProspectParams) (any, error) {
			if err := RequireField("company", p.Company); err != nil {
				return nil, err
			}
			if err := ValidateEnum("stage", p.Stage, prospectStages...); err != nil {
				return nil, err
			}
			prospect, err := t.backend.InsertProspect(ctx, domain.Prospect{
				Company:     p.Company,
				ContactName: p.ContactName,
				Email:       p.Email,
				Phone:       p.Phone,
				Stage:       p.Stage,
				Priority:    p.Priority,
				Notes:       p.Notes,
			})
			if err != nil {
				return nil, err
			}
			t.logger.Info("prospect created", "id", prospect.ID, "company", prospect.Company)
			span.SetAttributes(tracer.IntAttr("record.id", int(prospect.ID)))
			return prospect, nil
		})
}

// UpdateProspectTool applies a partial update to a prospect.
type UpdateProspectTool struct {
	backend ProspectBackend
	logger  *slog.Logger
}

func NewUpdateProspectTool(backend ProspectBackend, logger *slog.Logger) *UpdateProspectTool {
	return &UpdateProspectTool{backend: backend, logger: logger}
}

func (t *UpdateProspectTool) Name() string { return "update_prospect" }
func (t *UpdateProspectTool) Description() string {
	return "Update an existing prospect by id. Only the supplied fields change; omitted fields are left as they are."
}

func (t *UpdateProspectTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id":           {"type": "integer", "description": "Prospect id"},
				"company":      {"type": "string"},
				"contact_name": {"type": "string"},
				"email":        {"type": "string"},
				"phone":        {"type": "string"},
				"stage":        {"type": "string", "enum": ["lead", "contacted", "quoted", "negotiating", "won", "lost"]},
				"priority":     {"type": "integer", "minimum": 1, "maximum": 5},
				"notes":        {"type": "string"}
			},
			"required": ["id"]
		}`),
	}
}

type updateProspectParams struct {
	ID int64 `json:"id"`
	domain.ProspectPatch
}

func (t *UpdateProspectTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.update_prospect", t.logger, params,
		func(ctx context.Context, span trace.Span, p updateProspectParams) (any, error) {
			if err := ValidatePositive("id", p.ID); err != nil {
				return nil, err
			}
			if p.Stage != nil {
				if err := ValidateEnum("stage", *p.Stage, prospectStages...); err != nil {
					return nil, err
				}
			}
			prospect, err := t.backend.UpdateProspect(ctx, p.ID, p.ProspectPatch)
			if err != nil {
				return nil, err
			}
			t.logger.Info("prospect updated", "id", prospect.ID)
			span.SetAttributes(tracer.IntAttr("record.id", int(prospect.ID)))
			return prospect, nil
		})
}
