package invoice

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightflow/internal/model"
)

func parseCtx() ParseContext {
	return ParseContext{
		Owner:    "broker@acme.com",
		Location: time.UTC,
		Now:      time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
		FileURL:  "https://minio/invoices/loads.csv",
	}
}

func TestParseCSV(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		csvText := strings.Join([]string{
			"Load #,Bill Date,Shipper,Rate,Carrier,Carrier Pay",
			"1001,2025-06-01,Acme Foods,\"$1,500.00\",Fast Freight,$1100",
			"1002,06/05/2025,Globex,2000,Road Runners,1500",
		}, "\n")

		res, err := ParseCSV(strings.NewReader(csvText), parseCtx())
		require.NoError(t, err)
		require.Len(t, res.Records, 2)
		assert.Empty(t, res.Skipped)

		first := res.Records[0]
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, "1001", first.LoadNumber)
		assert.Equal(t, "Acme Foods", first.Shipper)
		assert.Equal(t, "Fast Freight", first.Carrier)
		assert.Equal(t, 1500.0, first.TotalCharge)
		assert.Equal(t, 1100.0, first.CarrierPay)
		assert.Equal(t, model.ShipperTerms, first.ShipperTerms)
		assert.Equal(t, model.CarrierTerms, first.CarrierTerms)
		require.NotNil(t, first.BillDate)
		assert.Equal(t, utc(2025, time.June, 1), *first.BillDate)
		require.NotNil(t, first.ShipperDue)
		assert.Equal(t, utc(2025, time.July, 1), *first.ShipperDue)
		require.NotNil(t, first.CarrierDue)
		assert.Equal(t, utc(2025, time.June, 16), *first.CarrierDue)
		assert.Equal(t, "broker@acme.com", first.Owner)
		assert.Equal(t, "https://minio/invoices/loads.csv", first.FileURL)
		assert.Nil(t, first.FlaggedReason)
		assert.Equal(t, model.StatusPending, first.Status)

		second := res.Records[1]
		require.NotNil(t, second.BillDate)
		assert.Equal(t, utc(2025, time.June, 5), *second.BillDate)
	})

	t.Run("alias headers resolve", func(t *testing.T) {
		csvText := strings.Join([]string{
			"load_id,Invoice Date,Customer,Amount,Trucking Company,carrier_charge",
			"7001,2025-06-01,Initech,900,Speedy,700",
		}, "\n")

		res, err := ParseCSV(strings.NewReader(csvText), parseCtx())
		require.NoError(t, err)
		require.Len(t, res.Records, 1)

		rec := res.Records[0]
		assert.Equal(t, "7001", rec.LoadNumber)
		assert.Equal(t, "Initech", rec.Shipper)
		assert.Equal(t, "Speedy", rec.Carrier)
		assert.Equal(t, 900.0, rec.TotalCharge)
		assert.Equal(t, 700.0, rec.CarrierPay)
	})

	t.Run("row without load number is skipped", func(t *testing.T) {
		csvText := strings.Join([]string{
			"Load #,Shipper",
			",Acme",
			"1001,Globex",
		}, "\n")

		res, err := ParseCSV(strings.NewReader(csvText), parseCtx())
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, 2, res.Skipped[0].Line)
		assert.Equal(t, "missing load number", res.Skipped[0].Reason)
	})

	t.Run("blank rows are ignored", func(t *testing.T) {
		csvText := strings.Join([]string{
			"Load #,Shipper",
			"1001,Acme",
			",",
			"   ,",
			"1002,Globex",
		}, "\n")

		res, err := ParseCSV(strings.NewReader(csvText), parseCtx())
		require.NoError(t, err)
		assert.Len(t, res.Records, 2)
		assert.Empty(t, res.Skipped)
	})

	t.Run("malformed values are normalized not fatal", func(t *testing.T) {
		csvText := strings.Join([]string{
			"Load #,Bill Date,Shipper,Rate,Carrier,Carrier Pay",
			"1001,not-a-date,Acme,garbage,Fast,also-garbage",
		}, "\n")

		res, err := ParseCSV(strings.NewReader(csvText), parseCtx())
		require.NoError(t, err)
		require.Len(t, res.Records, 1)

		rec := res.Records[0]
		assert.Nil(t, rec.BillDate)
		assert.Nil(t, rec.ShipperDue)
		assert.Equal(t, 0.0, rec.TotalCharge)
		assert.Equal(t, 0.0, rec.CarrierPay)

		require.NotNil(t, rec.FlaggedReason)
		assert.Contains(t, *rec.FlaggedReason, ReasonMissingBillDate)
		assert.Contains(t, *rec.FlaggedReason, ReasonInvalidCharge)
		assert.Contains(t, *rec.FlaggedReason, ReasonInvalidCarrierPay)
		assert.Equal(t, model.StatusFlagged, rec.Status)
	})

	t.Run("duplicates within one file are flagged", func(t *testing.T) {
		csvText := strings.Join([]string{
			"Load #,Bill Date,Shipper,Rate,Carrier,Carrier Pay",
			"1001,2025-06-01,Acme,1500,Fast,1100",
			"1001,2025-06-02,Globex,2000,Speedy,1500",
		}, "\n")

		res, err := ParseCSV(strings.NewReader(csvText), parseCtx())
		require.NoError(t, err)
		require.Len(t, res.Records, 2)
		for _, rec := range res.Records {
			require.NotNil(t, rec.FlaggedReason)
			assert.Contains(t, *rec.FlaggedReason, ReasonDuplicateLoad)
			assert.Equal(t, model.StatusFlagged, rec.Status)
		}
	})

	t.Run("overdue derives from due date and clock", func(t *testing.T) {
		// Bill date 2025-01-01 puts both dues well before the June clock.
		csvText := strings.Join([]string{
			"Load #,Bill Date,Shipper,Rate,Carrier,Carrier Pay",
			"1001,2025-01-01,Acme,1500,Fast,1100",
		}, "\n")

		res, err := ParseCSV(strings.NewReader(csvText), parseCtx())
		require.NoError(t, err)
		require.Len(t, res.Records, 1)

		rec := res.Records[0]
		require.NotNil(t, rec.FlaggedReason)
		assert.Contains(t, *rec.FlaggedReason, ReasonShipperOverdue)
		assert.Contains(t, *rec.FlaggedReason, ReasonCarrierOverdue)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""), parseCtx())
		assert.ErrorIs(t, err, ErrEmptyCSV)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("Load #,Shipper\n"), parseCtx())
		assert.ErrorIs(t, err, ErrEmptyCSV)
	})

	t.Run("uneven row widths tolerated", func(t *testing.T) {
		csvText := strings.Join([]string{
			"Load #,Bill Date,Shipper,Rate,Carrier,Carrier Pay",
			"1001,2025-06-01,Acme",
		}, "\n")

		res, err := ParseCSV(strings.NewReader(csvText), parseCtx())
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		assert.Equal(t, "Acme", res.Records[0].Shipper)
		assert.Equal(t, 0.0, res.Records[0].TotalCharge)
	})
}
