package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/storage"
)

var ErrArchiveUnavailable = errors.New("export archiving is not configured")

const archiveURLExpiry = 15 * time.Minute

var (
	timeLogHeader     = []string{"ID", "User", "Project", "Task", "Start", "End", "Duration (hours)", "Hourly Rate", "Currency", "Amount", "Paid", "Status", "Note"}
	invoiceHeader     = []string{"Invoice Number", "Client", "Issue Date", "Due Date", "Status", "Subtotal", "Discount", "Tax", "Total", "Paid", "Currency"}
	invoiceItemHeader = []string{"Description", "Quantity", "Unit Price", "Amount"}
	clientHeader      = []string{"Name", "Email", "Contact Person", "Phone", "Address", "Hourly Rate", "Currency"}
	projectHeader     = []string{"Name", "Client", "Source", "Description", "Created At"}
	taskHeader        = []string{"Title", "Project", "Status", "Priority", "Due Date", "Assignees", "Tags"}
)

// Table is a rendered export. Name doubles as the download file name stem.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

func (t *Table) Filename() string {
	return t.Name + ".csv"
}

func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

type ExportService struct {
	db    *database.DB
	store storage.Storage
	now   func() time.Time
}

// NewExportService builds the exporter. store may be nil when archiving is disabled.
func NewExportService(db *database.DB, store storage.Storage) *ExportService {
	return &ExportService{db: db, store: store, now: time.Now}
}

func (s *ExportService) CanArchive() bool {
	return s.store != nil
}

// Archive uploads the table as CSV and returns a presigned download URL.
func (s *ExportService) Archive(ctx context.Context, userID uuid.UUID, t *Table) (string, error) {
	if s.store == nil {
		return "", ErrArchiveUnavailable
	}

	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return "", err
	}

	key := fmt.Sprintf("exports/%s/%s-%s.csv", userID, t.Name, s.now().UTC().Format("20060102T150405"))
	if err := s.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "text/csv"); err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.store.PresignGet(ctx, key, archiveURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign export: %w", err)
	}
	return url, nil
}

func (s *ExportService) collect(ctx context.Context, name string, header []string, scan func(pgx.Rows) ([]string, error), sql string, args ...any) (*Table, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := &Table{Name: name, Header: header, Rows: [][]string{}}
	for rows.Next() {
		record, err := scan(rows)
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, record)
	}
	return t, rows.Err()
}

func (s *ExportService) TimeLogs(ctx context.Context, userID uuid.UUID, f TimeLogFilter) (*Table, error) {
	return s.collect(ctx, "time-logs", timeLogHeader, func(rows pgx.Rows) ([]string, error) {
		var (
			l             models.TimeLog
			user, project string
			task          *string
		)
		if err := rows.Scan(&l.ID, &user, &project, &task, &l.StartTimestamp, &l.EndTimestamp,
			&l.Duration, &l.HourlyRate, &l.Currency, &l.IsPaid, &l.Status, &l.Note); err != nil {
			return nil, err
		}
		var end, duration string
		if l.EndTimestamp != nil {
			end = formatTime(*l.EndTimestamp)
		}
		if l.Duration != nil {
			duration = formatMoney(*l.Duration)
		}
		return []string{
			l.ID.String(), user, project, deref(task), formatTime(l.StartTimestamp), end, duration,
			formatMoney(l.HourlyRate), l.Currency, formatMoney(l.Amount()), yesNo(l.IsPaid), l.Status, deref(l.Note),
		}, nil
	}, `
		SELECT tl.id, u.name, p.name, t.title, tl.start_timestamp, tl.end_timestamp, tl.duration,
			tl.hourly_rate, tl.currency, tl.is_paid, tl.status, tl.note
		FROM time_logs tl
		JOIN users u ON u.id = tl.user_id
		JOIN projects p ON p.id = tl.project_id
		LEFT JOIN tasks t ON t.id = tl.task_id
		WHERE (CASE WHEN $2 = 'team' THEN p.user_id = $1 ELSE tl.user_id = $1 END)
		  AND ($3::uuid IS NULL OR tl.project_id = $3)
		  AND ($4 = '' OR tl.status = $4)
		  AND ($5::boolean IS NULL OR tl.is_paid = $5)
		  AND ($6::timestamptz IS NULL OR tl.start_timestamp >= $6)
		  AND ($7::timestamptz IS NULL OR tl.start_timestamp < $7)
		ORDER BY tl.start_timestamp DESC
	`, userID, f.Scope, f.ProjectID, f.Status, f.IsPaid, f.From, f.To)
}

func (s *ExportService) Invoices(ctx context.Context, userID uuid.UUID) (*Table, error) {
	return s.collect(ctx, "invoices", invoiceHeader, func(rows pgx.Rows) ([]string, error) {
		var inv models.Invoice
		var client string
		if err := rows.Scan(&inv.InvoiceNumber, &client, &inv.IssueDate, &inv.DueDate, &inv.Status,
			&inv.Subtotal, &inv.DiscountAmount, &inv.TaxAmount, &inv.TotalAmount, &inv.PaidAmount, &inv.Currency); err != nil {
			return nil, err
		}
		return []string{
			inv.InvoiceNumber, client, formatDate(inv.IssueDate), formatDate(inv.DueDate), inv.Status,
			formatMoney(inv.Subtotal), formatMoney(inv.DiscountAmount), formatMoney(inv.TaxAmount),
			formatMoney(inv.TotalAmount), formatMoney(inv.PaidAmount), inv.Currency,
		}, nil
	}, `
		SELECT i.invoice_number, c.name, i.issue_date, i.due_date, i.status, i.subtotal,
			i.discount_amount, i.tax_amount, i.total_amount, i.paid_amount, i.currency
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.user_id = $1
		ORDER BY i.issue_date DESC, i.invoice_number DESC
	`, userID)
}

func (s *ExportService) InvoiceItems(ctx context.Context, invoiceID, userID uuid.UUID) (*Table, error) {
	var number string
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT invoice_number FROM invoices WHERE id = $1 AND user_id = $2
	`, invoiceID, userID).Scan(&number); err != nil {
		return nil, notFound(err, ErrInvoiceNotFound)
	}

	return s.collect(ctx, "invoice-"+number, invoiceItemHeader, func(rows pgx.Rows) ([]string, error) {
		var it models.InvoiceItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return nil, err
		}
		return []string{it.Description, formatMoney(it.Quantity), formatMoney(it.UnitPrice), formatMoney(it.Amount)}, nil
	}, `
		SELECT description, quantity, unit_price, amount
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY description, id
	`, invoiceID)
}

func (s *ExportService) Clients(ctx context.Context, userID uuid.UUID) (*Table, error) {
	return s.collect(ctx, "clients", clientHeader, func(rows pgx.Rows) ([]string, error) {
		var c models.Client
		if err := rows.Scan(&c.Name, &c.Email, &c.ContactPerson, &c.Phone, &c.Address, &c.HourlyRate, &c.Currency); err != nil {
			return nil, err
		}
		return []string{
			c.Name, deref(c.Email), deref(c.ContactPerson), deref(c.Phone), deref(c.Address),
			formatMoney(c.HourlyRate), c.Currency,
		}, nil
	}, `
		SELECT name, email, contact_person, phone, address, hourly_rate, currency
		FROM clients
		WHERE user_id = $1
		ORDER BY name
	`, userID)
}

const visibleProject = `(p.user_id = $1 OR EXISTS(
	SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = $1
))`

func (s *ExportService) Projects(ctx context.Context, userID uuid.UUID) (*Table, error) {
	return s.collect(ctx, "projects", projectHeader, func(rows pgx.Rows) ([]string, error) {
		var p models.Project
		if err := rows.Scan(&p.Name, &p.ClientName, &p.Source, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		return []string{p.Name, deref(p.ClientName), deref(p.Source), deref(p.Description), formatTime(p.CreatedAt)}, nil
	}, `
		SELECT p.name, c.name, p.source, p.description, p.created_at
		FROM projects p
		LEFT JOIN clients c ON c.id = p.client_id
		WHERE `+visibleProject+`
		ORDER BY p.name
	`, userID)
}

// Tasks exports tasks of every visible project, or of projectID when it is set.
func (s *ExportService) Tasks(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) (*Table, error) {
	return s.collect(ctx, "tasks", taskHeader, func(rows pgx.Rows) ([]string, error) {
		var t models.Task
		var project, assignees, tags string
		if err := rows.Scan(&t.Title, &project, &t.Status, &t.Priority, &t.DueDate, &assignees, &tags); err != nil {
			return nil, err
		}
		var due string
		if t.DueDate != nil {
			due = formatDate(*t.DueDate)
		}
		return []string{t.Title, project, t.Status, t.Priority, due, assignees, tags}, nil
	}, `
		SELECT t.title, p.name, t.status, t.priority, t.due_date,
			COALESCE((
				SELECT string_agg(u.name, '; ' ORDER BY u.name)
				FROM task_assignees ta JOIN users u ON u.id = ta.user_id
				WHERE ta.task_id = t.id
			), ''),
			COALESCE((
				SELECT string_agg(tg.name, '; ' ORDER BY tg.name)
				FROM task_tags tt JOIN tags tg ON tg.id = tt.tag_id
				WHERE tt.task_id = t.id
			), '')
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE `+visibleProject+`
		  AND ($2::uuid IS NULL OR t.project_id = $2)
		ORDER BY p.name, t.created_at
	`, userID, projectID)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
