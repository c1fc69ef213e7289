package tool

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/tracer"
)

// defaultSearchLimit caps rows returned by record search tools so a
// single tool result stays within a reasonable model context size.
const defaultSearchLimit = 20

// InventoryBackend abstracts the material inventory operations.
type InventoryBackend interface {
	SearchInventory(ctx context.Context, search string, limit int) ([]domain.InventoryItem, error)
	InsertInventoryItem(ctx context.Context, it domain.InventoryItem) (*domain.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id int64, p domain.InventoryPatch) (*domain.InventoryItem, error)
}

// GetInventoryTool searches material inventory records.
type GetInventoryTool struct {
	backend InventoryBackend
	logger  *slog.Logger
}

func NewGetInventoryTool(backend InventoryBackend, logger *slog.Logger) *GetInventoryTool {
	return &GetInventoryTool{backend: backend, logger: logger}
}

func (t *GetInventoryTool) Name() string { return "get_inventory" }
func (t *GetInventoryTool) Description() string {
	return "Search material inventory. Matches the query as a case-insensitive substring of description, manufacturer, or part number. Omit the query to list the most recent items."
}

func (t *GetInventoryTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Substring to match against description, mfg, or pn"
				}
			}
		}`),
	}
}

type getInventoryParams struct {
	Query string `json:"query,omitempty"`
}

func (t *GetInventoryTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.get_inventory", t.logger, params,
		func(ctx context.Context, span trace.Span, p getInventoryParams) (any, error) {
			items, err := t.backend.SearchInventory(ctx, p.Query, defaultSearchLimit)
			if err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.IntAttr("result.count", len(items)))
			if len(items) == 0 {
				return TextResult("No inventory items found."), nil
			}
			return items, nil
		})
}

// CreateInventoryTool records a new material inventory item.
type CreateInventoryTool struct {
	backend InventoryBackend
	logger  *slog.Logger
}

func NewCreateInventoryTool(backend InventoryBackend, logger *slog.Logger) *CreateInventoryTool {
	return &CreateInventoryTool{backend: backend, logger: logger}
}

func (t *CreateInventoryTool) Name() string { return "create_inventory_item" }
func (t *CreateInventoryTool) Description() string {
	return "Record a new material inventory item. Requires a description; all other fields are optional."
}

func (t *CreateInventoryTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"description":      {"type": "string", "description": "What the item is"},
				"checked_in_date":  {"type": "string", "description": "Date received, YYYY-MM-DD"},
				"mfg":              {"type": "string", "description": "Manufacturer"},
				"pn":               {"type": "string", "description": "Part number"},
				"sn":               {"type": "string", "description": "Serial number"},
				"job_number":       {"type": "string"},
				"po_number":        {"type": "string"},
				"customer":         {"type": "string"},
				"check_out_date":   {"type": "string", "description": "Date checked out, YYYY-MM-DD"},
				"transmittal_form": {"type": "string", "enum": ["yes", "no"]},
				"type":             {"type": "string", "description": "Item category, e.g. drive, plc, hmi, misc"},
				"return_needed":    {"type": "string", "enum": ["yes", "no"]},
				"location":         {"type": "string", "description": "Shelf or bin location"},
				"qty":              {"type": "integer", "minimum": 1},
				"vendor":           {"type": "string"}
			},
			"required": ["description"]
		}`),
	}
}

type createInventoryParams struct {
	Description     string `json:"description"`
	CheckedInDate   string `json:"checked_in_date,omitempty"`
	Mfg             string `json:"mfg,omitempty"`
	PN              string `json:"pn,omitempty"`
	SN              string `json:"sn,omitempty"`
	JobNumber       string `json:"job_number,omitempty"`
	PONumber        string `json:"po_number,omitempty"`
	Customer        string `json:"customer,omitempty"`
	CheckOutDate    string `json:"check_out_date,omitempty"`
	TransmittalForm string `json:"transmittal_form,omitempty"`
	Type            string `json:"type,omitempty"`
	ReturnNeeded    string `json:"return_needed,omitempty"`
	Location        string `json:"location,omitempty"`
	Qty             int    `json:"qty,omitempty"`
	Vendor          string `json:"vendor,omitempty"`
}

func (t *CreateInventoryTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.create_inventory_item", t.logger, params,
		func(ctx context.Context, span trace.Span, p createInventoryParams) (any, error) {
			if err := RequireField("description", p.Description); err != nil {
				return nil, err
			}
			if err := ValidateEnum("transmittal_form", p.TransmittalForm, "yes", "no"); err != nil {
				return nil, err
			}
			if err := ValidateEnum("return_needed", p.ReturnNeeded, "yes", "no"); err != nil {
				return nil, err
			}
			item, err := t.backend.InsertInventoryItem(ctx, domain.InventoryItem{
				Description:     p.Description,
				CheckedInDate:   p.CheckedInDate,
				Mfg:             p.Mfg,
				PN:              p.PN,
				SN:              p.SN,
				JobNumber:       p.JobNumber,
				PONumber:        p.PONumber,
				Customer:        p.Customer,
				CheckOutDate:    p.CheckOutDate,
				TransmittalForm: p.TransmittalForm,
				Type:            p.Type,
				ReturnNeeded:    p.ReturnNeeded,
				Location:        p.Location,
				Qty:             p.Qty,
				Vendor:          p.Vendor,
			})
			if err != nil {
				return nil, err
			}
			t.logger.Info("inventory item created", "id", item.ID, "description", item.Description)
			span.SetAttributes(tracer.IntAttr("record.id", int(item.ID)))
			return item, nil
		})
}

// UpdateInventoryTool applies a partial update to an inventory item.
type UpdateInventoryTool struct {
	backend InventoryBackend
	logger  *slog.Logger
}

func NewUpdateInventoryTool(backend InventoryBackend, logger *slog.Logger) *UpdateInventoryTool {
	return &UpdateInventoryTool{backend: backend, logger: logger}
}

func (t *UpdateInventoryTool) Name() string { return "update_inventory_item" }
func (t *UpdateInventoryTool) Description() string {
	return "Update an existing inventory item by id. Only the supplied fields change; omitted fields are left as they are."
}

func (t *UpdateInventoryTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id":               {"type": "integer", "description": "Inventory item id"},
				"description":      {"type": "string"},
				"checked_in_date":  {"type": "string"},
				"mfg":              {"type": "string"},
				"pn":               {"type": "string"},
				"sn":               {"type": "string"},
				"job_number":       {"type": "string"},
				"po_number":        {"type": "string"},
				"customer":         {"type": "string"},
				"check_out_date":   {"type": "string"},
				"transmittal_form": {"type": "string", "enum": ["yes", "no"]},
				"type":             {"type": "string"},
				"return_needed":    {"type": "string", "enum": ["yes", "no"]},
				"location":         {"type": "string"},
				"qty":              {"type": "integer", "minimum": 1},
				"vendor":           {"type": "string"}
			},
			"required": ["id"]
		}`),
	}
}

type updateInventoryParams struct {
	ID int64 `json:"id"`
	domain.InventoryPatch
}

func (t *UpdateInventoryTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.update_inventory_item", t.logger, params,
		func(ctx context.Context, span trace.Span, p updateInventoryParams) (any, error) {
			if err := ValidatePositive("id", p.ID); err != nil {
				return nil, err
			}
			item, err := t.backend.UpdateInventoryItem(ctx, p.ID, p.InventoryPatch)
			if err != nil {
				return nil, err
			}
			t.logger.Info("inventory item updated", "id", item.ID)
			span.SetAttributes(tracer.IntAttr("record.id", int(item.ID)))
			return item, nil
		})
}
