package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvoiceStatusDraft         = "draft"
	InvoiceStatusSent          = "sent"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusOverdue       = "overdue"
	InvoiceStatusCancelled     = "cancelled"
)

// Adjustment kinds for discount_type and tax_type.
const (
	AdjustmentPercentage = "percentage"
	AdjustmentFixed      = "fixed"
)

type Invoice struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	ClientID       uuid.UUID     `json:"client_id"`
	InvoiceNumber  string        `json:"invoice_number"`
	IssueDate      time.Time     `json:"issue_date"`
	DueDate        time.Time     `json:"due_date"`
	Status         string        `json:"status"`
	DiscountType   *string       `json:"discount_type,omitempty"`
	DiscountValue  float64       `json:"discount_value"`
	TaxType        *string       `json:"tax_type,omitempty"`
	TaxRate        float64       `json:"tax_rate"`
	Subtotal       float64       `json:"subtotal"`
	DiscountAmount float64       `json:"discount_amount"`
	TaxAmount      float64       `json:"tax_amount"`
	TotalAmount    float64       `json:"total_amount"`
	PaidAmount     float64       `json:"paid_amount"`
	Currency       string        `json:"currency"`
	Notes          *string       `json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Items          []InvoiceItem `json:"items,omitempty"`
	ClientName     *string       `json:"client_name,omitempty"`
}

type InvoiceItem struct {
	ID          uuid.UUID  `json:"id"`
	InvoiceID   uuid.UUID  `json:"invoice_id"`
	TimeLogID   *uuid.UUID `json:"time_log_id,omitempty"`
	Description string     `json:"description"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	Amount      float64    `json:"amount"`
}
