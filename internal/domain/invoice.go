package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceType string

const (
	InvoiceTypeBooking        InvoiceType = "booking"
	InvoiceTypeMonthlyStorage InvoiceType = "monthly_storage"
	InvoiceTypeAnnualRental   InvoiceType = "annual_rental"
	InvoiceTypeServiceOrder   InvoiceType = "service_order"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// MonthlyStorageDescription prefixes the line item used to detect an existing monthly invoice.
const MonthlyStorageDescription = "Monthly Storage"

// InvoiceItem is a single line. Discounts are lines with a negative Total.
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type Invoice struct {
	ID             int32           `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	Type           InvoiceType     `json:"type"`
	CustomerID     int32           `json:"customer_id"`
	BookingID      *int32          `json:"booking_id,omitempty"`
	ServiceOrderID *int32          `json:"service_order_id,omitempty"`
	Items          []InvoiceItem   `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	DueDate        time.Time       `json:"due_date"`
	Status         InvoiceStatus   `json:"status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ServiceOrderStatus string

const (
	ServiceOrderStatusPending    ServiceOrderStatus = "pending"
	ServiceOrderStatusInProgress ServiceOrderStatus = "in_progress"
	ServiceOrderStatusCompleted  ServiceOrderStatus = "completed"
	ServiceOrderStatusCancelled  ServiceOrderStatus = "cancelled"
)

type ServiceOrderItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type ServiceOrder struct {
	ID          int32              `json:"id"`
	CustomerID  int32              `json:"customer_id"`
	WarehouseID int32              `json:"warehouse_id"`
	BookingID   *int32             `json:"booking_id,omitempty"`
	Status      ServiceOrderStatus `json:"status"`
	Items       []ServiceOrderItem `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
}

// MonthlyInvoiceBatchResult summarises a monthly invoicing run.
type MonthlyInvoiceBatchResult struct {
	Generated []int32          `json:"generated"`
	Skipped   []int32          `json:"skipped"`
	Errors    []BatchItemError `json:"errors"`
}

// BatchItemError isolates a failure of one item in a batch operation.
type BatchItemError struct {
	ID    int32  `json:"id"`
	Error string `json:"error"`
}
