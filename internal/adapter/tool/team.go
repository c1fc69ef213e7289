package tool

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/tracer"
)

// TeamBackend abstracts the user directory reads.
type TeamBackend interface {
	ListTeam(ctx context.Context) ([]domain.TeamMember, error)
}

// GetTeamTool lists the team directory. Credential material never
// appears in the result; the backend only surfaces directory fields.
type GetTeamTool struct {
	backend TeamBackend
	logger  *slog.Logger
}

func NewGetTeamTool(backend TeamBackend, logger *slog.Logger) *GetTeamTool {
	return &GetTeamTool{backend: backend, logger: logger}
}

func (t *GetTeamTool) Name() string { return "get_team" }
func (t *GetTeamTool) Description() string {
	return "List all team members with their role and contact details."
}

func (t *GetTeamTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
	}
}

type getTeamParams struct{}

func (t *GetTeamTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.get_team", t.logger, params,
		func(ctx context.Context, span trace.Span, _ getTeamParams) (any, error) {
			members, err := t.backend.ListTeam(ctx)
			if err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.IntAttr("result.count", len(members)))
			if len(members) == 0 {
				return TextResult("No team members found."), nil
			}
			return members, nil
		})
}
