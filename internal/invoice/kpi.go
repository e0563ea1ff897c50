package invoice

import (
	"github.com/shopspring/decimal"

	"freightflow/internal/model"
)

// KPIAccumulator reduces a record collection into cash-flow KPIs without
// holding the collection in memory; callers feed it page by page. The zero
// value is ready to use and an empty reduction yields an all-zero KPISet.
type KPIAccumulator struct {
	charges   decimal.Decimal
	pay       decimal.Decimal
	collected decimal.Decimal
	disbursed decimal.Decimal
	recv      decimal.Decimal
	payable   decimal.Decimal
	overdue   decimal.Decimal

	total         int
	unpaidShipper int
	unpaidCarrier int
	flagged       int
}

// Add folds one record into the running sums.
func (a *KPIAccumulator) Add(r model.InvoiceRecord) {
	charge := decimal.NewFromFloat(r.TotalCharge)
	pay := decimal.NewFromFloat(r.CarrierPay)

	a.total++
	a.charges = a.charges.Add(charge)
	a.pay = a.pay.Add(pay)

	if r.ShipperPaid {
		a.collected = a.collected.Add(charge)
	} else {
		a.unpaidShipper++
		a.recv = a.recv.Add(charge)
	}
	if r.CarrierPaid {
		a.disbursed = a.disbursed.Add(pay)
	} else {
		a.unpaidCarrier++
		a.payable = a.payable.Add(pay)
	}
	if r.Flagged() {
		a.flagged++
		a.overdue = a.overdue.Add(charge.Sub(pay))
	}
}

// Result finalizes the reduction. Sums are rounded to 2 decimals here, once,
// not per row.
func (a *KPIAccumulator) Result() model.KPISet {
	round := func(d decimal.Decimal) float64 {
		f, _ := d.Round(2).Float64()
		return f
	}
	return model.KPISet{
		ProjectedCashFlow: round(a.charges.Sub(a.pay)),
		ActualCashFlow:    round(a.collected.Sub(a.disbursed)),
		TotalReceivables:  round(a.recv),
		TotalPayables:     round(a.payable),
		OverdueAmount:     round(a.overdue),
		TotalInvoices:     a.total,
		UnpaidShipper:     a.unpaidShipper,
		UnpaidCarrier:     a.unpaidCarrier,
		FlaggedRecords:    a.flagged,
	}
}

// ComputeKPIs is the one-shot form for collections already in memory.
func ComputeKPIs(rows []model.InvoiceRecord) model.KPISet {
	var acc KPIAccumulator
	for i := range rows {
		acc.Add(rows[i])
	}
	return acc.Result()
}
