package invoice

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"freightflow/internal/model"
)

// ErrEmptyCSV is returned when the file has no header or no data rows.
// A failed parse is fatal to the whole ingestion call; nothing is inserted.
var ErrEmptyCSV = errors.New("csv is empty or invalid")

// ParseContext carries the owner identity and clock for one ingestion call.
// Normalization and flagging never read ambient state; everything they need
// arrives here.
type ParseContext struct {
	Owner    string
	Location *time.Location
	Now      time.Time
	FileURL  string
}

// SkippedRow records a row that was excluded from insertion outright, as
// opposed to flagged. Line is 1-based and counts the header.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ParseResult is the outcome of parsing one CSV file.
type ParseResult struct {
	Records []model.InvoiceRecord
	Skipped []SkippedRow
}

// ParseCSV reads broker CSV text and produces canonical, flagged invoice
// records ready for insertion. Headers are alias-resolved, values are
// normalized (malformed amounts become 0, malformed dates become absent), and
// the flag engine runs over the whole batch so duplicates within the file are
// caught. Rows with no load number are skipped, not flagged.
func ParseCSV(r io.Reader, pc ParseContext) (*ParseResult, error) {
	if pc.Location == nil {
		pc.Location = time.UTC
	}
	if pc.Now.IsZero() {
		pc.Now = time.Now()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCSV
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	now := pc.Now.UTC()
	result := &ParseResult{}
	line := 1
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line+1, err)
		}
		line++
		if isBlankRow(cells) {
			continue
		}

		row := NewRow(headers, cells)
		loadNumber := Resolve(row, FieldLoadNumber)
		if loadNumber == "" {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: "missing load number"})
			continue
		}

		rec := model.InvoiceRecord{
			ID:           uuid.NewString(),
			LoadNumber:   loadNumber,
			Shipper:      Resolve(row, FieldShipper),
			Carrier:      Resolve(row, FieldCarrier),
			TotalCharge:  ParseAmount(Resolve(row, FieldTotalCharge)),
			CarrierPay:   ParseAmount(Resolve(row, FieldCarrierPay)),
			ShipperTerms: model.ShipperTerms,
			CarrierTerms: model.CarrierTerms,
			Owner:        pc.Owner,
			FileURL:      pc.FileURL,
			Status:       model.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if bd := ParseDate(Resolve(row, FieldBillDate), pc.Location); bd != nil {
			rec.BillDate = bd
			shipperDue, carrierDue := DueDates(*bd)
			rec.ShipperDue = &shipperDue
			rec.CarrierDue = &carrierDue
		}
		result.Records = append(result.Records, rec)
	}

	if len(result.Records) == 0 && len(result.Skipped) == 0 {
		return nil, ErrEmptyCSV
	}

	today := Today(pc.Now, pc.Location)
	FlagBatch(result.Records, today)
	for i := range result.Records {
		result.Records[i].Status = DeriveStatus(result.Records[i], today)
	}
	return result, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
