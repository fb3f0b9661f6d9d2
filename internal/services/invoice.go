package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvoiceNumberExists  = errors.New("invoice number already exists")
	ErrInvoiceLocked        = errors.New("paid or cancelled invoices cannot be changed")
	ErrNoBillableTimeLogs   = errors.New("no approved unpaid time logs to invoice")
	ErrMixedCurrencies      = errors.New("time logs use more than one currency")
	ErrInvalidPayment       = errors.New("payment amount must be positive")
	ErrTimeLogNotBillable   = errors.New("time logs must be finished, approved, unpaid and not invoiced yet on your projects")
	ErrInvalidInvoiceStatus = errors.New("invalid invoice status")
	ErrStatusNotEditable    = errors.New("status can only be set to draft, sent or cancelled")
)

// Totals is the computed money breakdown of an invoice.
type Totals struct {
	Subtotal float64
	Discount float64
	Tax      float64
	Total    float64
}

// CalculateTotals sums item amounts and applies the discount and tax. Both adjustments are
// computed on the subtotal: a percentage takes that share, a fixed value is taken as is.
// Fixed discounts are capped at the subtotal; fixed tax is not.
func CalculateTotals(items []models.InvoiceItem, discountType *string, discountValue float64, taxType *string, taxRate float64) Totals {
	var t Totals
	for _, it := range items {
		t.Subtotal += models.RoundCents(it.Quantity * it.UnitPrice)
	}
	t.Subtotal = models.RoundCents(t.Subtotal)

	t.Discount = adjustment(t.Subtotal, discountType, discountValue)
	if t.Discount > t.Subtotal {
		t.Discount = t.Subtotal
	}
	t.Tax = adjustment(t.Subtotal, taxType, taxRate)
	t.Total = models.RoundCents(t.Subtotal - t.Discount + t.Tax)
	return t
}

func adjustment(subtotal float64, kind *string, value float64) float64 {
	if kind == nil || value <= 0 {
		return 0
	}
	switch *kind {
	case models.AdjustmentPercentage:
		return models.RoundCents(subtotal * value / 100)
	case models.AdjustmentFixed:
		return models.RoundCents(value)
	}
	return 0
}

type InvoiceItemParams struct {
	TimeLogID   *uuid.UUID
	Description string
	Quantity    float64
	UnitPrice   float64
}

type InvoiceParams struct {
	ClientID      uuid.UUID
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	DiscountType  *string
	DiscountValue float64
	TaxType       *string
	TaxRate       float64
	Currency      string
	Notes         *string
	Items         []InvoiceItemParams
}

// InvoiceUpdate leaves nil fields unchanged. A non-nil Items replaces all items.
type InvoiceUpdate struct {
	InvoiceNumber *string
	IssueDate     *time.Time
	DueDate       *time.Time
	Status        *string
	DiscountType  *string
	DiscountValue *float64
	TaxType       *string
	TaxRate       *float64
	Notes         *string
	Items         []InvoiceItemParams
}

type FromTimeLogsParams struct {
	ClientID      uuid.UUID
	TimeLogIDs    []uuid.UUID
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	DiscountType  *string
	DiscountValue float64
	TaxType       *string
	TaxRate       float64
	Notes         *string
}

type InvoiceService struct {
	db *database.DB
}

func NewInvoiceService(db *database.DB) *InvoiceService {
	return &InvoiceService{db: db}
}

const invoiceColumns = `i.id, i.user_id, i.client_id, i.invoice_number, i.issue_date, i.due_date, i.status,
	i.discount_type, i.discount_value, i.tax_type, i.tax_rate, i.subtotal, i.discount_amount, i.tax_amount,
	i.total_amount, i.paid_amount, i.currency, i.notes, i.created_at, i.updated_at`

func invoiceDest(inv *models.Invoice) []any {
	return []any{
		&inv.ID, &inv.UserID, &inv.ClientID, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate, &inv.Status,
		&inv.DiscountType, &inv.DiscountValue, &inv.TaxType, &inv.TaxRate, &inv.Subtotal, &inv.DiscountAmount, &inv.TaxAmount,
		&inv.TotalAmount, &inv.PaidAmount, &inv.Currency, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
	}
}

func (s *InvoiceService) List(ctx context.Context, userID uuid.UUID, status string) ([]models.Invoice, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+invoiceColumns+`, c.name
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.user_id = $1 AND ($2 = '' OR i.status = $2)
		ORDER BY i.issue_date DESC, i.invoice_number DESC
	`, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(append(invoiceDest(&inv), &inv.ClientName)...); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *InvoiceService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`, c.name
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.id = $1 AND i.user_id = $2
	`, id, userID).Scan(append(invoiceDest(&inv), &inv.ClientName)...)
	if err != nil {
		return nil, notFound(err, ErrInvoiceNotFound)
	}

	if inv.Items, err = loadInvoiceItems(ctx, s.db.Pool, id); err != nil {
		return nil, err
	}
	return &inv, nil
}

func loadInvoiceItems(ctx context.Context, q querier, invoiceID uuid.UUID) ([]models.InvoiceItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, invoice_id, time_log_id, description, quantity, unit_price, amount
		FROM invoice_items WHERE invoice_id = $1 ORDER BY description, id
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.InvoiceItem{}
	for rows.Next() {
		var it models.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.TimeLogID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func toItems(params []InvoiceItemParams) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(params))
	for _, p := range params {
		items = append(items, models.InvoiceItem{
			TimeLogID:   p.TimeLogID,
			Description: p.Description,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
			Amount:      models.RoundCents(p.Quantity * p.UnitPrice),
		})
	}
	return items
}

func replaceInvoiceItems(ctx context.Context, tx pgx.Tx, invoiceID uuid.UUID, items []models.InvoiceItem) error {
	if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("failed to clear invoice items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO invoice_items (invoice_id, time_log_id, description, quantity, unit_price, amount)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, invoiceID, it.TimeLogID, it.Description, it.Quantity, it.UnitPrice, it.Amount)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert invoice items: %w", err)
	}
	return nil
}

// checkItemLogs verifies every linked time log is billable: finished, approved and unpaid
// on a project owned by userID, and not on any invoice other than invoiceID (nil on create).
func checkItemLogs(ctx context.Context, q querier, userID uuid.UUID, invoiceID *uuid.UUID, items []models.InvoiceItem) error {
	var ids []uuid.UUID
	for _, it := range items {
		if it.TimeLogID != nil {
			ids = append(ids, *it.TimeLogID)
		}
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}

	var n int
	if err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM time_logs tl JOIN projects p ON p.id = tl.project_id
		WHERE p.user_id = $1 AND tl.id = ANY($2)
		  AND tl.status = 'approved' AND NOT tl.is_paid AND tl.end_timestamp IS NOT NULL
		  AND NOT EXISTS(
			SELECT 1 FROM invoice_items ii
			WHERE ii.time_log_id = tl.id AND ii.invoice_id IS DISTINCT FROM $3::uuid
		  )
	`, userID, ids, invoiceID).Scan(&n); err != nil {
		return err
	}
	if n != len(ids) {
		return ErrTimeLogNotBillable
	}
	return nil
}

// nextInvoiceNumber returns INV-<year>-<n>, one past the highest number the user holds
// under that year's prefix. Gaps left by deleted invoices are not reused.
func nextInvoiceNumber(ctx context.Context, q querier, userID uuid.UUID, issue time.Time) (string, error) {
	pattern := fmt.Sprintf(`^INV-%d-([0-9]{1,9})$`, issue.Year())

	var n int
	if err := q.QueryRow(ctx, `
		SELECT COALESCE(MAX(SUBSTRING(invoice_number FROM $2)::int), 0) + 1
		FROM invoices WHERE user_id = $1 AND invoice_number ~ $2
	`, userID, pattern).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%04d", issue.Year(), n), nil
}

func (s *InvoiceService) insert(ctx context.Context, tx pgx.Tx, userID uuid.UUID, p InvoiceParams, items []models.InvoiceItem) (*models.Invoice, error) {
	number := strings.TrimSpace(p.InvoiceNumber)
	if number == "" {
		var err error
		if number, err = nextInvoiceNumber(ctx, tx, userID, p.IssueDate); err != nil {
			return nil, err
		}
	}

	t := CalculateTotals(items, p.DiscountType, p.DiscountValue, p.TaxType, p.TaxRate)

	var inv models.Invoice
	err := tx.QueryRow(ctx, `
		INSERT INTO invoices AS i (user_id, client_id, invoice_number, issue_date, due_date, status,
			discount_type, discount_value, tax_type, tax_rate, subtotal, discount_amount, tax_amount,
			total_amount, currency, notes)
		VALUES ($1, $2, $3, $4, $5, 'draft', $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+invoiceColumns,
		userID, p.ClientID, number, p.IssueDate, p.DueDate,
		p.DiscountType, p.DiscountValue, p.TaxType, p.TaxRate, t.Subtotal, t.Discount, t.Tax,
		t.Total, strings.ToUpper(p.Currency), p.Notes).Scan(invoiceDest(&inv)...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrInvoiceNumberExists
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	if err := replaceInvoiceItems(ctx, tx, inv.ID, items); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *InvoiceService) Create(ctx context.Context, userID uuid.UUID, p InvoiceParams) (*models.Invoice, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var clientCurrency string
	if err := tx.QueryRow(ctx, `
		SELECT currency FROM clients WHERE id = $1 AND user_id = $2
	`, p.ClientID, userID).Scan(&clientCurrency); err != nil {
		return nil, notFound(err, ErrClientNotFound)
	}
	if p.Currency == "" {
		p.Currency = clientCurrency
	}

	items := toItems(p.Items)
	if err := checkItemLogs(ctx, tx, userID, nil, items); err != nil {
		return nil, err
	}

	inv, err := s.insert(ctx, tx, userID, p, items)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.Get(ctx, inv.ID, userID)
}

// CreateFromTimeLogs invoices the approved, unpaid and not yet invoiced time logged on the
// client's projects. An empty TimeLogIDs takes every such log.
func (s *InvoiceService) CreateFromTimeLogs(ctx context.Context, userID uuid.UUID, p FromTimeLogsParams) (*models.Invoice, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1 AND user_id = $2)
	`, p.ClientID, userID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrClientNotFound
	}

	var ids []uuid.UUID
	if len(p.TimeLogIDs) > 0 {
		ids = dedupe(p.TimeLogIDs)
	}

	rows, err := tx.Query(ctx, `
		SELECT tl.id, tl.start_timestamp, tl.duration, tl.hourly_rate, tl.currency, pr.name,
			COALESCE(t.title, tl.note, '')
		FROM time_logs tl
		JOIN projects pr ON pr.id = tl.project_id
		LEFT JOIN tasks t ON t.id = tl.task_id
		WHERE pr.user_id = $1 AND pr.client_id = $2
		  AND tl.status = 'approved' AND NOT tl.is_paid AND tl.end_timestamp IS NOT NULL
		  AND NOT EXISTS(SELECT 1 FROM invoice_items ii WHERE ii.time_log_id = tl.id)
		  AND ($3::uuid[] IS NULL OR tl.id = ANY($3))
		ORDER BY tl.start_timestamp
	`, userID, p.ClientID, ids)
	if err != nil {
		return nil, err
	}

	var items []InvoiceItemParams
	currency := ""
	for rows.Next() {
		var id uuid.UUID
		var start time.Time
		var duration, rate float64
		var cur, project, label string
		if err := rows.Scan(&id, &start, &duration, &rate, &cur, &project, &label); err != nil {
			rows.Close()
			return nil, err
		}
		if currency != "" && cur != currency {
			rows.Close()
			return nil, ErrMixedCurrencies
		}
		currency = cur

		desc := project + " (" + start.Format("2006-01-02") + ")"
		if label != "" {
			desc = project + ": " + label + " (" + start.Format("2006-01-02") + ")"
		}
		items = append(items, InvoiceItemParams{TimeLogID: &id, Description: desc, Quantity: duration, UnitPrice: rate})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoBillableTimeLogs
	}

	inv, err := s.insert(ctx, tx, userID, InvoiceParams{
		ClientID:      p.ClientID,
		InvoiceNumber: p.InvoiceNumber,
		IssueDate:     p.IssueDate,
		DueDate:       p.DueDate,
		DiscountType:  p.DiscountType,
		DiscountValue: p.DiscountValue,
		TaxType:       p.TaxType,
		TaxRate:       p.TaxRate,
		Currency:      currency,
		Notes:         p.Notes,
	}, toItems(items))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.Get(ctx, inv.ID, userID)
}

func ValidInvoiceStatus(status string) bool {
	switch status {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusPaid,
		models.InvoiceStatusPartiallyPaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled:
		return true
	}
	return false
}

// EditableInvoiceStatus reports whether status may be set directly. Paid and partially paid
// follow from AddPayment, overdue from MarkOverdue.
func EditableInvoiceStatus(status string) bool {
	switch status {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusCancelled:
		return true
	}
	return false
}

func (s *InvoiceService) lock(ctx context.Context, tx pgx.Tx, id, userID uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	if err := tx.QueryRow(ctx, `
		SELECT `+invoiceColumns+` FROM invoices i WHERE i.id = $1 AND i.user_id = $2 FOR UPDATE
	`, id, userID).Scan(invoiceDest(&inv)...); err != nil {
		return nil, notFound(err, ErrInvoiceNotFound)
	}
	return &inv, nil
}

func (s *InvoiceService) Update(ctx context.Context, id, userID uuid.UUID, upd InvoiceUpdate) (*models.Invoice, error) {
	if upd.Status != nil {
		if !ValidInvoiceStatus(*upd.Status) {
			return nil, ErrInvalidInvoiceStatus
		}
		if !EditableInvoiceStatus(*upd.Status) {
			return nil, ErrStatusNotEditable
		}
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, err := s.lock(ctx, tx, id, userID)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusCancelled {
		return nil, ErrInvoiceLocked
	}

	var items []models.InvoiceItem
	if upd.Items != nil {
		items = toItems(upd.Items)
		if err := checkItemLogs(ctx, tx, userID, &id, items); err != nil {
			return nil, err
		}
		if err := replaceInvoiceItems(ctx, tx, id, items); err != nil {
			return nil, err
		}
	} else if items, err = loadInvoiceItems(ctx, tx, id); err != nil {
		return nil, err
	}

	if upd.InvoiceNumber != nil {
		inv.InvoiceNumber = strings.TrimSpace(*upd.InvoiceNumber)
	}
	if upd.IssueDate != nil {
		inv.IssueDate = *upd.IssueDate
	}
	if upd.DueDate != nil {
		inv.DueDate = *upd.DueDate
	}
	if upd.Status != nil {
		inv.Status = *upd.Status
	}
	if upd.DiscountType != nil {
		inv.DiscountType = nullableString(*upd.DiscountType)
	}
	if upd.DiscountValue != nil {
		inv.DiscountValue = *upd.DiscountValue
	}
	if upd.TaxType != nil {
		inv.TaxType = nullableString(*upd.TaxType)
	}
	if upd.TaxRate != nil {
		inv.TaxRate = *upd.TaxRate
	}
	if upd.Notes != nil {
		inv.Notes = upd.Notes
	}

	t := CalculateTotals(items, inv.DiscountType, inv.DiscountValue, inv.TaxType, inv.TaxRate)

	_, err = tx.Exec(ctx, `
		UPDATE invoices SET invoice_number = $1, issue_date = $2, due_date = $3, status = $4,
			discount_type = $5, discount_value = $6, tax_type = $7, tax_rate = $8,
			subtotal = $9, discount_amount = $10, tax_amount = $11, total_amount = $12,
			notes = $13, updated_at = NOW()
		WHERE id = $14
	`, inv.InvoiceNumber, inv.IssueDate, inv.DueDate, inv.Status,
		inv.DiscountType, inv.DiscountValue, inv.TaxType, inv.TaxRate,
		t.Subtotal, t.Discount, t.Tax, t.Total, inv.Notes, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrInvoiceNumberExists
		}
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.Get(ctx, id, userID)
}

func (s *InvoiceService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// MarkSent moves a draft or overdue invoice to sent. Invoices already sent or partially
// paid keep their status so a resend does not lose payment state.
func (s *InvoiceService) MarkSent(ctx context.Context, id, userID uuid.UUID) (*models.Invoice, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, err := s.lock(ctx, tx, id, userID)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusCancelled {
		return nil, ErrInvoiceLocked
	}

	if inv.Status == models.InvoiceStatusDraft || inv.Status == models.InvoiceStatusOverdue {
		if _, err := tx.Exec(ctx, `
			UPDATE invoices SET status = 'sent', updated_at = NOW() WHERE id = $1
		`, id); err != nil {
			return nil, fmt.Errorf("failed to mark invoice sent: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.Get(ctx, id, userID)
}

// AddPayment records amount against the invoice. Once the total is covered the invoice is
// paid and every time log it bills is marked paid.
func (s *InvoiceService) AddPayment(ctx context.Context, id, userID uuid.UUID, amount float64) (*models.Invoice, error) {
	amount = models.RoundCents(amount)
	if amount <= 0 {
		return nil, ErrInvalidPayment
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, err := s.lock(ctx, tx, id, userID)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusCancelled {
		return nil, ErrInvoiceLocked
	}

	paid := models.RoundCents(inv.PaidAmount + amount)
	status := models.InvoiceStatusPartiallyPaid
	if paid >= inv.TotalAmount {
		status = models.InvoiceStatusPaid
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invoices SET paid_amount = $1, status = $2, updated_at = NOW() WHERE id = $3
	`, paid, status, id); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if status == models.InvoiceStatusPaid {
		if _, err := tx.Exec(ctx, `
			UPDATE time_logs SET is_paid = TRUE, updated_at = NOW()
			WHERE id IN (SELECT time_log_id FROM invoice_items WHERE invoice_id = $1 AND time_log_id IS NOT NULL)
		`, id); err != nil {
			return nil, fmt.Errorf("failed to mark time logs paid: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.Get(ctx, id, userID)
}

// OverdueInvoice identifies an invoice MarkOverdue just flagged.
type OverdueInvoice struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	InvoiceNumber string
}

// MarkOverdue flags sent and partially paid invoices whose due date is before today.
func (s *InvoiceService) MarkOverdue(ctx context.Context, today time.Time) ([]OverdueInvoice, error) {
	rows, err := s.db.Pool.Query(ctx, `
		UPDATE invoices SET status = 'overdue', updated_at = NOW()
		WHERE status IN ('sent', 'partially_paid') AND due_date < $1::date
		RETURNING id, user_id, invoice_number
	`, today)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invoices overdue: %w", err)
	}
	defer rows.Close()

	out := []OverdueInvoice{}
	for rows.Next() {
		var o OverdueInvoice
		if err := rows.Scan(&o.ID, &o.UserID, &o.InvoiceNumber); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
