package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"opsdesk/internal/domain"
)

// patchBuilder accumulates SET clauses for partial updates. Only fields the
// caller actually supplied end up in the statement, so omitted fields are
// never touched.
type patchBuilder struct {
	sets []string
	args []any
}

func (b *patchBuilder) set(col string, v any) {
	b.sets = append(b.sets, col+" = ?")
	b.args = append(b.args, v)
}

func (b *patchBuilder) empty() bool { return len(b.sets) == 0 }

func (b *patchBuilder) exec(ctx context.Context, db *sql.DB, table string, id int64) error {
	b.set("updated_at", formatTime(time.Now()))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(b.sets, ", "))
	b.args = append(b.args, id)

	res, err := db.ExecContext(ctx, query, b.args...)
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", domain.ErrStoreFailure, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", domain.ErrStoreFailure, table, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s id %d", domain.ErrNotFound, table, id)
	}
	return nil
}

func likePattern(search string) string {
	return "%" + strings.ToLower(search) + "%"
}

// --- Inventory ---

const inventoryCols = `id, checked_in_date, mfg, pn, sn, job_number, po_number,
	customer, description, check_out_date, transmittal_form, type, return_needed,
	location, qty, vendor, created_at, updated_at`

func scanInventory(row interface{ Scan(...any) error }) (*domain.InventoryItem, error) {
	var it domain.InventoryItem
	var created, updated string
	err := row.Scan(&it.ID, &it.CheckedInDate, &it.Mfg, &it.PN, &it.SN,
		&it.JobNumber, &it.PONumber, &it.Customer, &it.Description,
		&it.CheckOutDate, &it.TransmittalForm, &it.Type, &it.ReturnNeeded,
		&it.Location, &it.Qty, &it.Vendor, &created, &updated)
	if err != nil {
		return nil, err
	}
	it.CreatedAt = parseTime(created)
	it.UpdatedAt = parseTime(updated)
	return &it, nil
}

// SearchInventory returns inventory rows whose description, manufacturer, or
// part number contains search (case-insensitive). An empty search returns the
// most recent rows.
func (s *Store) SearchInventory(ctx context.Context, search string, limit int) ([]domain.InventoryItem, error) {
	query := "SELECT " + inventoryCols + " FROM material_inventory"
	var args []any
	if search != "" {
		query += " WHERE lower(description) LIKE ? OR lower(mfg) LIKE ? OR lower(pn) LIKE ?"
		p := likePattern(search)
		args = append(args, p, p, p)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search inventory: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		it, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan inventory: %v", domain.ErrStoreFailure, err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// GetInventoryItem returns a single inventory row by id.
func (s *Store) GetInventoryItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+inventoryCols+" FROM material_inventory WHERE id = ?", id)
	it, err := scanInventory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: inventory id %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get inventory: %v", domain.ErrStoreFailure, err)
	}
	return it, nil
}

// InsertInventoryItem inserts a new row and returns it with timestamps stamped.
func (s *Store) InsertInventoryItem(ctx context.Context, it domain.InventoryItem) (*domain.InventoryItem, error) {
	now := formatTime(time.Now())
	if it.Qty <= 0 {
		it.Qty = 1
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO material_inventory
			(checked_in_date, mfg, pn, sn, job_number, po_number, customer,
			 description, check_out_date, transmittal_form, type, return_needed,
			 location, qty, vendor, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.CheckedInDate, it.Mfg, it.PN, it.SN, it.JobNumber, it.PONumber,
		it.Customer, it.Description, it.CheckOutDate, orDefault(it.TransmittalForm, "no"),
		orDefault(it.Type, "misc"), orDefault(it.ReturnNeeded, "no"),
		it.Location, it.Qty, it.Vendor, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: insert inventory: %v", domain.ErrStoreFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: insert inventory: %v", domain.ErrStoreFailure, err)
	}
	return s.GetInventoryItem(ctx, id)
}

// UpdateInventoryItem applies a partial update and returns the updated row.
// An empty patch is a no-op that still returns the current row.
func (s *Store) UpdateInventoryItem(ctx context.Context, id int64, p domain.InventoryPatch) (*domain.InventoryItem, error) {
	b := &patchBuilder{}
	if p.CheckedInDate != nil {
		b.set("checked_in_date", *p.CheckedInDate)
	}
	if p.Mfg != nil {
		b.set("mfg", *p.Mfg)
	}
	if p.PN != nil {
		b.set("pn", *p.PN)
	}
	if p.SN != nil {
		b.set("sn", *p.SN)
	}
	if p.JobNumber != nil {
		b.set("job_number", *p.JobNumber)
	}
	if p.PONumber != nil {
		b.set("po_number", *p.PONumber)
	}
	if p.Customer != nil {
		b.set("customer", *p.Customer)
	}
	if p.Description != nil {
		b.set("description", *p.Description)
	}
	if p.CheckOutDate != nil {
		b.set("check_out_date", *p.CheckOutDate)
	}
	if p.TransmittalForm != nil {
		b.set("transmittal_form", *p.TransmittalForm)
	}
	if p.Type != nil {
		b.set("type", *p.Type)
	}
	if p.ReturnNeeded != nil {
		b.set("return_needed", *p.ReturnNeeded)
	}
	if p.Location != nil {
		b.set("location", *p.Location)
	}
	if p.Qty != nil {
		b.set("qty", *p.Qty)
	}
	if p.Vendor != nil {
		b.set("vendor", *p.Vendor)
	}
	if b.empty() {
		return s.GetInventoryItem(ctx, id)
	}
	if err := b.exec(ctx, s.db, "material_inventory", id); err != nil {
		return nil, err
	}
	return s.GetInventoryItem(ctx, id)
}

// --- Jobs ---

const jobCols = `j.id, j.title, j.description, COALESCE(j.customer_id, 0),
	COALESCE(c.name, ''), j.status, j.priority, j.scheduled_date, j.due_date,
	j.estimated_hours, j.used_hours, j.created_at, j.updated_at`

func scanJob(row interface{ Scan(...any) error }) (*domain.Job, error) {
	var j domain.Job
	var created, updated string
	err := row.Scan(&j.ID, &j.Title, &j.Description, &j.CustomerID,
		&j.CustomerName, &j.Status, &j.Priority, &j.ScheduledDate, &j.DueDate,
		&j.EstimatedHours, &j.UsedHours, &created, &updated)
	if err != nil {
		return nil, err
	}
	j.CreatedAt = parseTime(created)
	j.UpdatedAt = parseTime(updated)
	return &j, nil
}

// SearchJobs returns jobs matching the search text (title, description, or
// customer name) and the optional status filter.
func (s *Store) SearchJobs(ctx context.Context, search, status string, limit int) ([]domain.Job, error) {
	query := "SELECT " + jobCols + " FROM jobs j LEFT JOIN customers c ON c.id = j.customer_id"
	var where []string
	var args []any
	if search != "" {
		where = append(where, "(lower(j.title) LIKE ? OR lower(j.description) LIKE ? OR lower(c.name) LIKE ?)")
		p := likePattern(search)
		args = append(args, p, p, p)
	}
	if status != "" {
		where = append(where, "j.status = ?")
		args = append(args, status)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY j.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search jobs: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan job: %v", domain.ErrStoreFailure, err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// GetJob returns a single job by id, with the customer name joined in.
func (s *Store) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+jobCols+" FROM jobs j LEFT JOIN customers c ON c.id = j.customer_id WHERE j.id = ?", id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: job id %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get job: %v", domain.ErrStoreFailure, err)
	}
	return j, nil
}

// InsertJob inserts a new job and returns it.
func (s *Store) InsertJob(ctx context.Context, j domain.Job) (*domain.Job, error) {
	now := formatTime(time.Now())
	var customerID any
	if j.CustomerID > 0 {
		customerID = j.CustomerID
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs
			(title, description, customer_id, status, priority, scheduled_date,
			 due_date, estimated_hours, used_hours, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.Title, j.Description, customerID, orDefault(j.Status, "pending"),
		orDefault(j.Priority, "medium"), j.ScheduledDate, j.DueDate,
		j.EstimatedHours, j.UsedHours, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: insert job: %v", domain.ErrStoreFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: insert job: %v", domain.ErrStoreFailure, err)
	}
	return s.GetJob(ctx, id)
}

// UpdateJob applies a partial update and returns the updated job.
func (s *Store) UpdateJob(ctx context.Context, id int64, p domain.JobPatch) (*domain.Job, error) {
	b := &patchBuilder{}
	if p.Title != nil {
		b.set("title", *p.Title)
	}
	if p.Description != nil {
		b.set("description", *p.Description)
	}
	if p.Status != nil {
		b.set("status", *p.Status)
	}
	if p.Priority != nil {
		b.set("priority", *p.Priority)
	}
	if p.ScheduledDate != nil {
		b.set("scheduled_date", *p.ScheduledDate)
	}
	if p.DueDate != nil {
		b.set("due_date", *p.DueDate)
	}
	if p.EstimatedHours != nil {
		b.set("estimated_hours", *p.EstimatedHours)
	}
	if p.UsedHours != nil {
		b.set("used_hours", *p.UsedHours)
	}
	if b.empty() {
		return s.GetJob(ctx, id)
	}
	if err := b.exec(ctx, s.db, "jobs", id); err != nil {
		return nil, err
	}
	return s.GetJob(ctx, id)
}

// --- Prospects ---

const prospectCols = `id, company, contact_name, email, phone, stage, priority,
	notes, created_at, updated_at`

func scanProspect(row interface{ Scan(...any) error }) (*domain.Prospect, error) {
	var p domain.Prospect
	var created, updated string
	err := row.Scan(&p.ID, &p.Company, &p.ContactName, &p.Email, &p.Phone,
		&p.Stage, &p.Priority, &p.Notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}

// SearchProspects returns pipeline rows matching the search text (company or
// contact name) and the optional stage filter.
func (s *Store) SearchProspects(ctx context.Context, search, stage string, limit int) ([]domain.Prospect, error) {
	query := "SELECT " + prospectCols + " FROM prospects"
	var where []string
	var args []any
	if search != "" {
		where = append(where, "(lower(company) LIKE ? OR lower(contact_name) LIKE ?)")
		p := likePattern(search)
		args = append(args, p, p)
	}
	if stage != "" {
		where = append(where, "stage = ?")
		args = append(args, stage)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY priority DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search prospects: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var prospects []domain.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan prospect: %v", domain.ErrStoreFailure, err)
		}
		prospects = append(prospects, *p)
	}
	return prospects, rows.Err()
}

// GetProspect returns a single prospect by id.
func (s *Store) GetProspect(ctx context.Context, id int64) (*domain.Prospect, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+prospectCols+" FROM prospects WHERE id = ?", id)
	p, err := scanProspect(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: prospect id %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get prospect: %v", domain.ErrStoreFailure, err)
	}
	return p, nil
}

// InsertProspect inserts a new prospect and returns it.
func (s *Store) InsertProspect(ctx context.Context, p domain.Prospect) (*domain.Prospect, error) {
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO prospects
			(company, contact_name, email, phone, stage, priority, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Company, p.ContactName, p.Email, p.Phone, orDefault(p.Stage, "lead"),
		p.Priority, p.Notes, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: insert prospect: %v", domain.ErrStoreFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: insert prospect: %v", domain.ErrStoreFailure, err)
	}
	return s.GetProspect(ctx, id)
}

// UpdateProspect applies a partial update and returns the updated prospect.
func (s *Store) UpdateProspect(ctx context.Context, id int64, p domain.ProspectPatch) (*domain.Prospect, error) {
	b := &patchBuilder{}
	if p.Company != nil {
		b.set("company", *p.Company)
	}
	if p.ContactName != nil {
		b.set("contact_name", *p.ContactName)
	}
	if p.Email != nil {
		b.set("email", *p.Email)
	}
	if p.Phone != nil {
		b.set("phone", *p.Phone)
	}
	if p.Stage != nil {
		b.set("stage", *p.Stage)
	}
	if p.Priority != nil {
		b.set("priority", *p.Priority)
	}
	if p.Notes != nil {
		b.set("notes", *p.Notes)
	}
	if b.empty() {
		return s.GetProspect(ctx, id)
	}
	if err := b.exec(ctx, s.db, "prospects", id); err != nil {
		return nil, err
	}
	return s.GetProspect(ctx, id)
}

// --- Customers & contacts ---

// SearchCustomers returns customers whose name or email matches the search
// text.
func (s *Store) SearchCustomers(ctx context.Context, search string, limit int) ([]domain.Customer, error) {
	query := "SELECT id, name, email, phone, address, created_at, updated_at FROM customers"
	var args []any
	if search != "" {
		query += " WHERE lower(name) LIKE ? OR lower(email) LIKE ?"
		p := likePattern(search)
		args = append(args, p, p)
	}
	query += " ORDER BY name LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search customers: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		var created, updated string
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &created, &updated); err != nil {
			return nil, fmt.Errorf("%w: scan customer: %v", domain.ErrStoreFailure, err)
		}
		c.CreatedAt = parseTime(created)
		c.UpdatedAt = parseTime(updated)
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// GetCustomer returns a single customer by id.
func (s *Store) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, phone, address, created_at, updated_at FROM customers WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: customer id %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get customer: %v", domain.ErrStoreFailure, err)
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return &c, nil
}

// InsertCustomer inserts a new customer and returns it.
func (s *Store) InsertCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (name, email, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.Phone, c.Address, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: insert customer: %v", domain.ErrStoreFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: insert customer: %v", domain.ErrStoreFailure, err)
	}
	return s.GetCustomer(ctx, id)
}

// InsertContact inserts a contact under an existing customer and returns it.
func (s *Store) InsertContact(ctx context.Context, ct domain.Contact) (*domain.Contact, error) {
	if _, err := s.GetCustomer(ctx, ct.CustomerID); err != nil {
		return nil, err
	}

	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO customer_contacts (customer_id, name, email, phone, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ct.CustomerID, ct.Name, ct.Email, ct.Phone, ct.Role, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: insert contact: %v", domain.ErrStoreFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: insert contact: %v", domain.ErrStoreFailure, err)
	}

	var out domain.Contact
	var created, updated string
	err = s.db.QueryRowContext(ctx,
		"SELECT id, customer_id, name, email, phone, role, created_at, updated_at FROM customer_contacts WHERE id = ?", id).
		Scan(&out.ID, &out.CustomerID, &out.Name, &out.Email, &out.Phone, &out.Role, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("%w: get contact: %v", domain.ErrStoreFailure, err)
	}
	out.CreatedAt = parseTime(created)
	out.UpdatedAt = parseTime(updated)
	return &out, nil
}

// --- Team & attendance ---

// ListTeam returns all users without credential material.
func (s *Store) ListTeam(ctx context.Context) ([]domain.TeamMember, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, role, email, phone FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("%w: list team: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var team []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.ID, &m.Username, &m.Role, &m.Email, &m.Phone); err != nil {
			return nil, fmt.Errorf("%w: scan user: %v", domain.ErrStoreFailure, err)
		}
		team = append(team, m)
	}
	return team, rows.Err()
}

// GetTeamMember returns one user by id.
func (s *Store) GetTeamMember(ctx context.Context, id int64) (*domain.TeamMember, error) {
	var m domain.TeamMember
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, role, email, phone FROM users WHERE id = ?", id).
		Scan(&m.ID, &m.Username, &m.Role, &m.Email, &m.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user id %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", domain.ErrStoreFailure, err)
	}
	return &m, nil
}

// InsertTeamMember inserts a user row. Used by seeding and tests.
func (s *Store) InsertTeamMember(ctx context.Context, m domain.TeamMember) (*domain.TeamMember, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, role, email, phone) VALUES (?, ?, ?, ?)",
		m.Username, orDefault(m.Role, "tech"), m.Email, m.Phone)
	if err != nil {
		return nil, fmt.Errorf("%w: insert user: %v", domain.ErrStoreFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: insert user: %v", domain.ErrStoreFailure, err)
	}
	m.ID = id
	m.Role = orDefault(m.Role, "tech")
	return &m, nil
}

// InsertAttendance records a check-in (and optional check-out) for a user.
func (s *Store) InsertAttendance(ctx context.Context, l domain.AttendanceLog) (*domain.AttendanceLog, error) {
	var checkOut any
	if l.CheckOut != nil {
		checkOut = formatTime(*l.CheckOut)
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO attendance (user_id, check_in, check_out, notes) VALUES (?, ?, ?, ?)",
		l.UserID, formatTime(l.CheckIn), checkOut, l.Notes)
	if err != nil {
		return nil, fmt.Errorf("%w: insert attendance: %v", domain.ErrStoreFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: insert attendance: %v", domain.ErrStoreFailure, err)
	}
	l.ID = id
	return &l, nil
}

// ListAttendance returns recent attendance rows, newest check-in first,
// optionally filtered by username (case-insensitive).
func (s *Store) ListAttendance(ctx context.Context, username string, limit int) ([]domain.AttendanceLog, error) {
	query := `SELECT a.id, a.user_id, u.username, a.check_in, a.check_out, a.notes
		FROM attendance a JOIN users u ON u.id = a.user_id`
	var args []any
	if username != "" {
		query += " WHERE lower(u.username) = ?"
		args = append(args, strings.ToLower(username))
	}
	query += " ORDER BY a.check_in DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list attendance: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var logs []domain.AttendanceLog
	for rows.Next() {
		var l domain.AttendanceLog
		var checkIn string
		var checkOut sql.NullString
		if err := rows.Scan(&l.ID, &l.UserID, &l.Username, &checkIn, &checkOut, &l.Notes); err != nil {
			return nil, fmt.Errorf("%w: scan attendance: %v", domain.ErrStoreFailure, err)
		}
		l.CheckIn = parseTime(checkIn)
		if checkOut.Valid {
			t := parseTime(checkOut.String)
			l.CheckOut = &t
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// --- Sub-tasks ---

// InsertSubTask inserts a task under an existing job and returns it.
func (s *Store) InsertSubTask(ctx context.Context, t domain.SubTask) (*domain.SubTask, error) {
	tasks, err := s.InsertSubTaskBatch(ctx, t.JobID, []domain.SubTask{t})
	if err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// InsertSubTaskBatch inserts several tasks under one job in a single
// transaction; either all rows land or none do.
func (s *Store) InsertSubTaskBatch(ctx context.Context, jobID int64, tasks []domain.SubTask) ([]domain.SubTask, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks to insert", domain.ErrInvalidInput)
	}
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", domain.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	out := make([]domain.SubTask, 0, len(tasks))
	for _, t := range tasks {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO sub_tasks
				(job_id, title, status, priority, due_date, estimated_hours, used_hours, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			jobID, t.Title, orDefault(t.Status, "pending"), orDefault(t.Priority, "medium"),
			t.DueDate, t.EstimatedHours, t.UsedHours, now, now)
		if err != nil {
			return nil, fmt.Errorf("%w: insert sub_task: %v", domain.ErrStoreFailure, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("%w: insert sub_task: %v", domain.ErrStoreFailure, err)
		}
		t.ID = id
		t.JobID = jobID
		t.Status = orDefault(t.Status, "pending")
		t.Priority = orDefault(t.Priority, "medium")
		t.CreatedAt = parseTime(now)
		t.UpdatedAt = parseTime(now)
		out = append(out, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", domain.ErrStoreFailure, err)
	}
	return out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
