package model

import "time"

// Status is the lifecycle state of an invoice record. It is always derived
// from the other fields (paid flags, flagged reason, due dates), never set
// directly by callers.
type Status string

const (
	StatusPending Status = "pending"
	StatusFlagged Status = "flagged"
	StatusOverdue Status = "overdue"
	StatusPaid    Status = "paid"
)

// Payment terms applied to every record in this version.
const (
	ShipperTerms     = "Net 30"
	CarrierTerms     = "Net 15"
	ShipperTermsDays = 30
	CarrierTermsDays = 15
)

// InvoiceRecord is the canonical unit of work: one freight invoice row after
// header resolution and value normalization. This is a pure domain model with
// no database tags; persistence mapping lives in the repository layer.
type InvoiceRecord struct {
	ID            string     `json:"id"`
	LoadNumber    string     `json:"load_number"`
	BillDate      *time.Time `json:"bill_date"`
	Shipper       string     `json:"shipper"`
	Carrier       string     `json:"carrier"`
	TotalCharge   float64    `json:"total_charge"`
	CarrierPay    float64    `json:"carrier_pay"`
	ShipperTerms  string     `json:"shipper_terms"`
	CarrierTerms  string     `json:"carrier_terms"`
	ShipperDue    *time.Time `json:"shipper_due"`
	CarrierDue    *time.Time `json:"carrier_due"`
	ShipperPaid   bool       `json:"shipper_paid"`
	CarrierPaid   bool       `json:"carrier_paid"`
	FlaggedReason *string    `json:"flagged_reason"`
	Status        Status     `json:"status"`
	Owner         string     `json:"owner"`
	FileURL       string     `json:"file_url"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NetCash is the margin on the load. Derived at read time, never persisted.
func (r *InvoiceRecord) NetCash() float64 {
	return r.TotalCharge - r.CarrierPay
}

// Flagged reports whether the record carries a non-empty flag reason.
func (r *InvoiceRecord) Flagged() bool {
	return r.FlaggedReason != nil && *r.FlaggedReason != ""
}

// KPISet holds the cash-flow metrics reduced from a record collection.
// Amounts are rounded to 2 decimals once, after summation.
type KPISet struct {
	ProjectedCashFlow float64 `json:"projected_cash_flow"`
	ActualCashFlow    float64 `json:"actual_cash_flow"`
	TotalReceivables  float64 `json:"total_receivables"`
	TotalPayables     float64 `json:"total_payables"`
	OverdueAmount     float64 `json:"overdue_amount"`

	TotalInvoices  int `json:"total_invoices"`
	UnpaidShipper  int `json:"unpaid_shipper_invoices"`
	UnpaidCarrier  int `json:"unpaid_carrier_invoices"`
	FlaggedRecords int `json:"flagged_invoices"`
}
