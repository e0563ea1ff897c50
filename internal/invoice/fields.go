package invoice

import "strings"

// Canonical field names produced by the resolver.
const (
	FieldLoadNumber  = "load_number"
	FieldBillDate    = "bill_date"
	FieldShipper     = "shipper"
	FieldCarrier     = "carrier"
	FieldTotalCharge = "total_charge"
	FieldCarrierPay  = "carrier_pay"
)

// fieldAliases maps each canonical field to its known spreadsheet header
// aliases, in match order. Supporting a new vendor's column naming is a data
// change here, not a logic change.
var fieldAliases = map[string][]string{
	FieldLoadNumber:  {"load id", "load #", "load number", "loadnumber", "loadnum", "loadno"},
	FieldTotalCharge: {"total charge", "rate", "load rate", "amount", "rate$", "charge"},
	FieldBillDate:    {"bill date", "invoice date", "date"},
	FieldShipper:     {"shipper", "customer", "client", "shipper name"},
	FieldCarrier:     {"carrier", "trucking company", "transporter", "carrier name"},
	FieldCarrierPay:  {"carrier pay", "carrier amount", "carrier rate", "carrier$", "carrier_charge"},
}

// normalizedAliases is fieldAliases with every alias run through NormalizeKey,
// computed once at package init.
var normalizedAliases = func() map[string][]string {
	m := make(map[string][]string, len(fieldAliases))
	for field, aliases := range fieldAliases {
		norm := make([]string, len(aliases))
		for i, a := range aliases {
			norm[i] = NormalizeKey(a)
		}
		m[field] = norm
	}
	return m
}()

// NormalizeKey folds a header into its canonical comparison form: trimmed,
// lowercased, with all whitespace and underscores removed. "Load ID",
// "load_id" and "loadid" all normalize to the same key.
func NormalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range k {
		switch r {
		case ' ', '\t', '\n', '\r', '_':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Row is one raw spreadsheet row keyed by normalized header.
type Row map[string]string

// NewRow builds a Row from parallel header/cell slices. When two headers
// normalize to the same key the first non-empty cell wins.
func NewRow(headers, cells []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if i >= len(cells) {
			break
		}
		key := NormalizeKey(h)
		if key == "" {
			continue
		}
		if _, ok := row[key]; ok && strings.TrimSpace(cells[i]) == "" {
			continue
		}
		if _, ok := row[key]; !ok || strings.TrimSpace(row[key]) == "" {
			row[key] = cells[i]
		}
	}
	return row
}

// Resolve returns the trimmed value of the first alias of field that has a
// non-empty cell in row. Unknown fields and rows with no matching header
// resolve to "", never an error.
func Resolve(row Row, field string) string {
	for _, alias := range normalizedAliases[field] {
		if v, ok := row[alias]; ok {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
