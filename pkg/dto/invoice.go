package dto

import "github.com/google/uuid"

type InvoiceItemRequest struct {
	TimeLogID   *uuid.UUID `json:"time_log_id"`
	Description string     `json:"description"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
}

// Dates are calendar dates formatted as 2006-01-02.
type CreateInvoiceRequest struct {
	ClientID      uuid.UUID            `json:"client_id"`
	InvoiceNumber string               `json:"invoice_number"`
	IssueDate     string               `json:"issue_date"`
	DueDate       string               `json:"due_date"`
	DiscountType  *string              `json:"discount_type"`
	DiscountValue float64              `json:"discount_value"`
	TaxType       *string              `json:"tax_type"`
	TaxRate       float64              `json:"tax_rate"`
	Currency      string               `json:"currency"`
	Notes         *string              `json:"notes"`
	Items         []InvoiceItemRequest `json:"items"`
}

type UpdateInvoiceRequest struct {
	InvoiceNumber *string              `json:"invoice_number"`
	IssueDate     *string              `json:"issue_date"`
	DueDate       *string              `json:"due_date"`
	Status        *string              `json:"status"`
	DiscountType  *string              `json:"discount_type"`
	DiscountValue *float64             `json:"discount_value"`
	TaxType       *string              `json:"tax_type"`
	TaxRate       *float64             `json:"tax_rate"`
	Notes         *string              `json:"notes"`
	Items         []InvoiceItemRequest `json:"items"`
}

type FromTimeLogsRequest struct {
	ClientID      uuid.UUID   `json:"client_id"`
	TimeLogIDs    []uuid.UUID `json:"time_log_ids"`
	InvoiceNumber string      `json:"invoice_number"`
	IssueDate     string      `json:"issue_date"`
	DueDate       string      `json:"due_date"`
	DiscountType  *string     `json:"discount_type"`
	DiscountValue float64     `json:"discount_value"`
	TaxType       *string     `json:"tax_type"`
	TaxRate       float64     `json:"tax_rate"`
	Notes         *string     `json:"notes"`
}

type PaymentRequest struct {
	Amount float64 `json:"amount"`
}
