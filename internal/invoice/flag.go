package invoice

import (
	"strings"
	"time"

	"freightflow/internal/model"
)

// Flag reason fragments. The flag engine joins every failing check with "; "
// so one record can carry several reasons at once.
const (
	ReasonMissingLoadNumber = "Missing Load #"
	ReasonMissingBillDate   = "Missing Bill Date"
	ReasonMissingShipper    = "Missing Shipper"
	ReasonMissingCarrier    = "Missing Carrier"
	ReasonInvalidCharge     = "Invalid Total Charge"
	ReasonInvalidCarrierPay = "Invalid Carrier Pay"
	ReasonPayExceedsRate    = "Carrier Pay Exceeds Load Rate"
	ReasonShipperOverdue    = "Shipper Overdue"
	ReasonCarrierOverdue    = "Carrier Overdue"
	ReasonFutureBillDate    = "Future Bill Date"
	ReasonNegativeNetCash   = "Non-Positive Net Cash"
	ReasonDuplicateLoad     = "Duplicate Load #"
)

// LoadNumberCounts counts load-number occurrences among the records in batch
// that belong to owner. The batch may be a freshly parsed file or the full
// persisted set for one owner; duplicate detection is owner-scoped either
// way, and a count above one flags every member of the group.
func LoadNumberCounts(batch []model.InvoiceRecord, owner string) map[string]int {
	counts := make(map[string]int, len(batch))
	for i := range batch {
		if batch[i].Owner != owner {
			continue
		}
		if ln := strings.TrimSpace(batch[i].LoadNumber); ln != "" {
			counts[ln]++
		}
	}
	return counts
}

// FlagReason evaluates the full rule set against one record plus the
// owner-scoped load-number counts of its batch and returns every failing
// check joined with "; ", or nil when the record is clean. today is the
// canonical clock from Today; the result is deterministic for a fixed batch
// and clock.
func FlagReason(rec model.InvoiceRecord, counts map[string]int, today time.Time) *string {
	var reasons []string

	if strings.TrimSpace(rec.LoadNumber) == "" {
		reasons = append(reasons, ReasonMissingLoadNumber)
	}
	if rec.BillDate == nil {
		reasons = append(reasons, ReasonMissingBillDate)
	}
	if strings.TrimSpace(rec.Shipper) == "" {
		reasons = append(reasons, ReasonMissingShipper)
	}
	if strings.TrimSpace(rec.Carrier) == "" {
		reasons = append(reasons, ReasonMissingCarrier)
	}
	if rec.TotalCharge <= 0 {
		reasons = append(reasons, ReasonInvalidCharge)
	}
	if rec.CarrierPay <= 0 {
		reasons = append(reasons, ReasonInvalidCarrierPay)
	}
	if rec.CarrierPay > rec.TotalCharge {
		reasons = append(reasons, ReasonPayExceedsRate)
	}
	if !rec.ShipperPaid && rec.ShipperDue != nil && rec.ShipperDue.Before(today) {
		reasons = append(reasons, ReasonShipperOverdue)
	}
	if !rec.CarrierPaid && rec.CarrierDue != nil && rec.CarrierDue.Before(today) {
		reasons = append(reasons, ReasonCarrierOverdue)
	}
	if rec.BillDate != nil && rec.BillDate.After(today) {
		reasons = append(reasons, ReasonFutureBillDate)
	}
	if rec.NetCash() <= 0 {
		reasons = append(reasons, ReasonNegativeNetCash)
	}
	if ln := strings.TrimSpace(rec.LoadNumber); ln != "" && counts[ln] > 1 {
		reasons = append(reasons, ReasonDuplicateLoad)
	}

	if len(reasons) == 0 {
		return nil
	}
	joined := strings.Join(reasons, "; ")
	return &joined
}

// FlagBatch recomputes FlaggedReason in place for every record in batch,
// building owner-scoped counts once per distinct owner.
func FlagBatch(batch []model.InvoiceRecord, today time.Time) {
	countsByOwner := make(map[string]map[string]int)
	for i := range batch {
		owner := batch[i].Owner
		if _, ok := countsByOwner[owner]; !ok {
			countsByOwner[owner] = LoadNumberCounts(batch, owner)
		}
	}
	for i := range batch {
		batch[i].FlaggedReason = FlagReason(batch[i], countsByOwner[batch[i].Owner], today)
	}
}
