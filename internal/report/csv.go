// Package report renders the downloadable CSV report: every canonical record
// plus derived net cash and flag reason, sorted by ascending bill date,
// followed by a KPI summary block. Column order and the KPI block are part of
// the report contract.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"freightflow/internal/model"
)

var columns = []string{
	"Load #",
	"Bill Date",
	"Shipper",
	"Load Rate ($)",
	"Shipper Terms & Due",
	"Shipper Paid",
	"Carrier",
	"Carrier Pay ($)",
	"Carrier Terms & Due",
	"Carrier Paid",
	"Net Cash",
	"Flagged Reason",
	"File",
}

// WriteCSV renders the report for one owner's records. Records without a
// bill date sort first. The caller supplies the KPI set so the summary block
// always matches the collection being reported.
func WriteCSV(records []model.InvoiceRecord, kpis model.KPISet) ([]byte, error) {
	sorted := make([]model.InvoiceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dateOrZero(sorted[i].BillDate).Before(dateOrZero(sorted[j].BillDate))
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, err
	}
	for i := range sorted {
		if err := w.Write(recordRow(&sorted[i])); err != nil {
			return nil, err
		}
	}

	kpiRows := [][]string{
		{"", "", "KPIs"},
		{"Projected Net Cash Flow", money(kpis.ProjectedCashFlow)},
		{"Actual Net Cash Flow", money(kpis.ActualCashFlow)},
		{"Total Receivables", money(kpis.TotalReceivables)},
		{"Total Payables", money(kpis.TotalPayables)},
		{"Overdue Amount", money(kpis.OverdueAmount)},
	}
	for _, row := range kpiRows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func recordRow(rec *model.InvoiceRecord) []string {
	reason := ""
	if rec.FlaggedReason != nil {
		reason = *rec.FlaggedReason
	}
	return []string{
		rec.LoadNumber,
		dateString(rec.BillDate),
		rec.Shipper,
		money(rec.TotalCharge),
		fmt.Sprintf("%s - %s", rec.ShipperTerms, dateString(rec.ShipperDue)),
		yesNo(rec.ShipperPaid),
		rec.Carrier,
		money(rec.CarrierPay),
		fmt.Sprintf("%s - %s", rec.CarrierTerms, dateString(rec.CarrierDue)),
		yesNo(rec.CarrierPaid),
		money(rec.NetCash()),
		reason,
		rec.FileURL,
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
