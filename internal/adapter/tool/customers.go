package tool

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"opsdesk/internal/domain"
	"opsdesk/internal/infra/tracer"
)

// CustomerBackend abstracts the customer directory operations.
type CustomerBackend interface {
	SearchCustomers(ctx context.Context, search string, limit int) ([]domain.Customer, error)
	InsertCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	InsertContact(ctx context.Context, ct domain.Contact) (*domain.Contact, error)
}

// GetCustomersTool searches the customer directory.
type GetCustomersTool struct {
	backend CustomerBackend
	logger  *slog.Logger
}

func NewGetCustomersTool(backend CustomerBackend, logger *slog.Logger) *GetCustomersTool {
	return &GetCustomersTool{backend: backend, logger: logger}
}

func (t *GetCustomersTool) Name() string { return "get_customers" }
func (t *GetCustomersTool) Description() string {
	return "Search customers by name or email. Omit the query to list the most recent customers."
}

func (t *GetCustomersTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Substring to match against customer name or email"
				}
			}
		}`),
	}
}

type getCustomersParams struct {
	Query string `json:"query,omitempty"`
}

func (t *GetCustomersTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.get_customers", t.logger, params,
		func(ctx context.Context, span trace.Span, p getCustomersParams) (any, error) {
			customers, err := t.backend.SearchCustomers(ctx, p.Query, defaultSearchLimit)
			if err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.IntAttr("result.count", len(customers)))
			if len(customers) == 0 {
				return TextResult("No customers found."), nil
			}
			return customers, nil
		})
}

// CreateCustomerTool adds a customer record.
type CreateCustomerTool struct {
	backend CustomerBackend
	logger  *slog.Logger
}

func NewCreateCustomerTool(backend CustomerBackend, logger *slog.Logger) *CreateCustomerTool {
	return &CreateCustomerTool{backend: backend, logger: logger}
}

func (t *CreateCustomerTool) Name() string { return "create_customer" }
func (t *CreateCustomerTool) Description() string {
	return "Add a new customer. Requires a name; email, phone, and address are optional."
}

func (t *CreateCustomerTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name":    {"type": "string", "description": "Customer or company name"},
				"email":   {"type": "string"},
				"phone":   {"type": "string"},
				"address": {"type": "string"}
			},
			"required": ["name"]
		}`),
	}
}

type createCustomerParams struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func (t *CreateCustomerTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.create_customer", t.logger, params,
		func(ctx context.Context, span trace.Span, p createCustomerParams) (any, error) {
			if err := RequireField("name", p.Name); err != nil {
				return nil, err
			}
			customer, err := t.backend.InsertCustomer(ctx, domain.Customer{
				Name:    p.Name,
				Email:   p.Email,
				Phone:   p.Phone,
				Address: p.Address,
			})
			if err != nil {
				return nil, err
			}
			t.logger.Info("customer created", "id", customer.ID, "name", customer.Name)
			span.SetAttributes(tracer.IntAttr("record.id", int(customer.ID)))
			return customer, nil
		})
}

// CreateContactTool adds a contact person under an existing customer.
type CreateContactTool struct {
	backend CustomerBackend
	logger  *slog.Logger
}

func NewCreateContactTool(backend CustomerBackend, logger *slog.Logger) *CreateContactTool {
	return &CreateContactTool{backend: backend, logger: logger}
}

func (t *CreateContactTool) Name() string { return "create_contact" }
func (t *CreateContactTool) Description() string {
	return "Add a contact person under an existing customer. Requires the customer id and the contact's name."
}

func (t *CreateContactTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"customer_id": {"type": "integer", "description": "Existing customer id"},
				"name":        {"type": "string", "description": "Contact's full name"},
				"email":       {"type": "string"},
				"phone":       {"type": "string"},
				"role":        {"type": "string", "description": "Contact's role, e.g. project manager"}
			},
			"required": ["customer_id", "name"]
		}`),
	}
}

type createContactParams struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role,omitempty"`
}

func (t *CreateContactTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.create_contact", t.logger, params,
		func(ctx context.Context, span trace.Span, p createContactParams) (any, error) {
			if err := ValidatePositive("customer_id", p.CustomerID); err != nil {
				return nil, err
			}
			if err := RequireField("name", p.Name); err != nil {
				return nil, err
			}
			contact, err := t.backend.InsertContact(ctx, domain.Contact{
				CustomerID: p.CustomerID,
				Name:       p.Name,
				Email:      p.Email,
				Phone:      p.Phone,
				Role:       p.Role,
			})
			if err != nil {
				return nil, err
			}
			t.logger.Info("contact created", "id", contact.ID, "customer_id", contact.CustomerID)
			span.SetAttributes(tracer.IntAttr("record.id", int(contact.ID)))
			return contact, nil
		})
}
