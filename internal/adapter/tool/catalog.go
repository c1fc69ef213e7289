package tool

import (
	"log/slog"

	"opsdesk/internal/domain"
)

// CatalogBackend aggregates every store capability the tool catalog
// needs. *store.Store satisfies it.
type CatalogBackend interface {
	InventoryBackend
	JobBackend
	ProspectBackend
	CustomerBackend
	TaskBackend
	AttendanceBackend
	TeamBackend
}

// Catalog returns the full fixed tool set backed by b.
func Catalog(b CatalogBackend, logger *slog.Logger) []domain.Tool {
	return []domain.Tool{
		NewGetInventoryTool(b, logger),
		NewCreateInventoryTool(b, logger),
		NewUpdateInventoryTool(b, logger),
		NewGetJobsTool(b, logger),
		NewCreateJobTool(b, logger),
		NewUpdateJobTool(b, logger),
		NewGetProspectsTool(b, logger),
		NewCreateProspectTool(b, logger),
		NewUpdateProspectTool(b, logger),
		NewGetCustomersTool(b, logger),
		NewCreateCustomerTool(b, logger),
		NewCreateContactTool(b, logger),
		NewCreateTaskTool(b, logger),
		NewBulkCreateTasksTool(b, logger),
		NewGetAttendanceTool(b, logger),
		NewGetTeamTool(b, logger),
	}
}
