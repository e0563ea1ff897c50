package invoice

import (
	"time"

	"freightflow/internal/model"
)

// DeriveStatus computes the lifecycle status of a record from its other
// fields. Precedence: paid when both sides are paid; otherwise flagged when a
// flag reason is present; otherwise overdue when at least one unpaid side is
// past its due date; otherwise pending. Status is a pure function of the
// record and clock, which is what makes reconciliation idempotent.
func DeriveStatus(rec model.InvoiceRecord, today time.Time) model.Status {
	if rec.ShipperPaid && rec.CarrierPaid {
		return model.StatusPaid
	}
	if rec.Flagged() {
		return model.StatusFlagged
	}
	shipperOverdue := !rec.ShipperPaid && rec.ShipperDue != nil && rec.ShipperDue.Before(today)
	carrierOverdue := !rec.CarrierPaid && rec.CarrierDue != nil && rec.CarrierDue.Before(today)
	if shipperOverdue || carrierOverdue {
		return model.StatusOverdue
	}
	return model.StatusPending
}
