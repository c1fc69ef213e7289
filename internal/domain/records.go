package domain

import "time"

// Business record types mirror the operations tables. Date-only fields
// (scheduled_date, due_date, checked_in_date, ...) are stored as
// YYYY-MM-DD strings, matching the store's column types.

// InventoryItem is one material_inventory row.
type InventoryItem struct {
	ID              int64     `json:"id"`
	CheckedInDate   string    `json:"checked_in_date"`
	Mfg             string    `json:"mfg"`
	PN              string    `json:"pn"`
	SN              string    `json:"sn"`
	JobNumber       string    `json:"job_number"`
	PONumber        string    `json:"po_number"`
	Customer        string    `json:"customer"`
	Description     string    `json:"description"`
	CheckOutDate    string    `json:"check_out_date"`
	TransmittalForm string    `json:"transmittal_form"`
	Type            string    `json:"type"`
	ReturnNeeded    string    `json:"return_needed"`
	Location        string    `json:"location"`
	Qty             int       `json:"qty"`
	Vendor          string    `json:"vendor"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// InventoryPatch is a partial update; nil fields are left unchanged.
type InventoryPatch struct {
	CheckedInDate   *string `json:"checked_in_date,omitempty"`
	Mfg             *string `json:"mfg,omitempty"`
	PN              *string `json:"pn,omitempty"`
	SN              *string `json:"sn,omitempty"`
	JobNumber       *string `json:"job_number,omitempty"`
	PONumber        *string `json:"po_number,omitempty"`
	Customer        *string `json:"customer,omitempty"`
	Description     *string `json:"description,omitempty"`
	CheckOutDate    *string `json:"check_out_date,omitempty"`
	TransmittalForm *string `json:"transmittal_form,omitempty"`
	Type            *string `json:"type,omitempty"`
	ReturnNeeded    *string `json:"return_needed,omitempty"`
	Location        *string `json:"location,omitempty"`
	Qty             *int    `json:"qty,omitempty"`
	Vendor          *string `json:"vendor,omitempty"`
}

// Job is one jobs row. CustomerName is populated by reads that join
// the customers table.
type Job struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CustomerID     int64     `json:"customer_id"`
	CustomerName   string    `json:"customer_name,omitempty"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	ScheduledDate  string    `json:"scheduled_date"`
	DueDate        string    `json:"due_date"`
	EstimatedHours float64   `json:"estimated_hours"`
	UsedHours      float64   `json:"used_hours"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JobPatch is a partial update; nil fields are left unchanged.
type JobPatch struct {
	Title          *string  `json:"title,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Status         *string  `json:"status,omitempty"`
	Priority       *string  `json:"priority,omitempty"`
	ScheduledDate  *string  `json:"scheduled_date,omitempty"`
	DueDate        *string  `json:"due_date,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	UsedHours      *float64 `json:"used_hours,omitempty"`
}

// Customer is one customers row.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact is one customer_contacts row.
type Contact struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Prospect is one CRM pipeline row.
type Prospect struct {
	ID          int64     `json:"id"`
	Company     string    `json:"company"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Stage       string    `json:"stage"`
	Priority    int       `json:"priority"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProspectPatch is a partial update; nil fields are left unchanged.
type ProspectPatch struct {
	Company     *string `json:"company,omitempty"`
	ContactName *string `json:"contact_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Stage       *string `json:"stage,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// SubTask is one sub_tasks row under a job.
type SubTask struct {
	ID             int64     `json:"id"`
	JobID          int64     `json:"job_id"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	DueDate        string    `json:"due_date"`
	EstimatedHours float64   `json:"estimated_hours"`
	UsedHours      float64   `json:"used_hours"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AttendanceLog is one attendance row; Username is joined from the
// user directory.
type AttendanceLog struct {
	ID       int64      `json:"id"`
	UserID   int64      `json:"user_id"`
	Username string     `json:"username,omitempty"`
	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out,omitempty"`
	Notes    string     `json:"notes"`
}

// TeamMember is one users row with credential material omitted.
type TeamMember struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}
