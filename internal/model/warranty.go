package model

import (
	"time"

	"github.com/google/uuid"
)

// WarrantyStatus is derived from the expiry date by the lifecycle engine.
// It is never accepted from user input.
type WarrantyStatus string

const (
	WarrantyStatusActive       WarrantyStatus = "ACTIVE"
	WarrantyStatusExpiringSoon WarrantyStatus = "EXPIRING_SOON"
	WarrantyStatusExpired      WarrantyStatus = "EXPIRED"
)

// Warranty represents a registered product warranty
type Warranty struct {
	Base
	UserID       uuid.UUID      `json:"user_id" db:"user_id"`
	ProductName  string         `json:"product_name" db:"product_name"`
	Brand        *string        `json:"brand" db:"brand"`
	SerialNumber *string        `json:"serial_number" db:"serial_number"`
	PurchaseDate time.Time      `json:"purchase_date" db:"purchase_date"`
	ExpiryDate   time.Time      `json:"expiry_date" db:"expiry_date"`
	Status       WarrantyStatus `json:"status" db:"status"`
	Version      int64          `json:"version" db:"version"`
	InvoiceURL   *string        `json:"invoice_url" db:"invoice_url"`
	Notes        *string        `json:"notes" db:"notes"`
}

// ScanCandidate is a warranty joined with its owner's active flag, as
// returned by the scan query. Warranties of suspended owners are skipped
// by policy, not deleted.
type ScanCandidate struct {
	Warranty
	OwnerActive bool   `db:"owner_active"`
	OwnerEmail  string `db:"owner_email"`
	OwnerName   string `db:"owner_name"`
}

// CreateWarrantyRequest represents warranty registration parameters.
// Status is intentionally absent: it is always derived.
type CreateWarrantyRequest struct {
	ProductName  string    `json:"product_name" binding:"required"`
	Brand        *string   `json:"brand"`
	SerialNumber *string   `json:"serial_number"`
	PurchaseDate time.Time `json:"purchase_date" binding:"required"`
	ExpiryDate   time.Time `json:"expiry_date" binding:"required,gtefield=PurchaseDate"`
	Notes        *string   `json:"notes"`
}

// UpdateWarrantyRequest represents warranty update parameters.
// Status is intentionally absent: it is always derived.
type UpdateWarrantyRequest struct {
	ProductName  *string    `json:"product_name"`
	Brand        *string    `json:"brand"`
	SerialNumber *string    `json:"serial_number"`
	PurchaseDate *time.Time `json:"purchase_date"`
	ExpiryDate   *time.Time `json:"expiry_date"`
	Notes        *string    `json:"notes"`
}

// AttachInvoiceRequest links an externally stored invoice to a warranty
type AttachInvoiceRequest struct {
	InvoiceURL string `json:"invoice_url" binding:"required,url"`
}
