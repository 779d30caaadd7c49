package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Drop reasons reported in LoadStats.Dropped.
const (
	DropMissingPrice     = "missing_sellingprice"
	DropMissingSaleDate  = "missing_saledate"
	DropMissingOdometer  = "missing_odometer"
	DropMissingCondition = "missing_condition"
)

// DefaultDateLayouts are tried in order when parsing saledate. The first
// matches the source export, e.g. "Tue Dec 16 2014 12:30:00 GMT-0800 (PST)",
// once the trailing zone name in parentheses is removed.
var DefaultDateLayouts = []string{
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// markers spreadsheet and dataframe exports use for an empty cell
var missingMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// isMissing reports whether a cell is empty. Cells are trimmed first, so a
// whitespace-only categorical counts as missing and becomes Unknown.
func isMissing(s string) bool {
	_, ok := missingMarkers[strings.TrimSpace(s)]
	return ok
}

// Clean applies the completeness and normalisation rules to raw rows. It
// returns the kept records and the number of dropped rows per reason. The
// first failing required field names the reason.
func Clean(raw []RawRecord) ([]Record, map[string]int) {
	records := make([]Record, 0, len(raw))
	dropped := make(map[string]int)

	for _, r := range raw {
		rec, reason := cleanRecord(r)
		if reason != "" {
			dropped[reason]++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

func cleanRecord(r RawRecord) (Record, string) {
	switch {
	case r.SellingPrice == nil:
		return Record{}, DropMissingPrice
	case r.SaleDate == nil:
		return Record{}, DropMissingSaleDate
	case r.Odometer == nil:
		return Record{}, DropMissingOdometer
	case r.Condition == nil:
		return Record{}, DropMissingCondition
	}

	rec := Record{
		Make:         lowerTrim(fillUnknown(r.Make)),
		Model:        lowerTrim(fillUnknown(r.Model)),
		Trim:         fillUnknown(r.Trim),
		Body:         lowerTrim(fillUnknown(r.Body)),
		Transmission: fillUnknown(r.Transmission),
		Color:        fillUnknown(r.Color),
		Interior:     fillUnknown(r.Interior),
		State:        upperTrim(fillUnknown(r.State)),
		Odometer:     *r.Odometer,
		Condition:    *r.Condition,
		SellingPrice: *r.SellingPrice,
		SaleDate:     naive(*r.SaleDate),
	}
	if r.Year != nil {
		rec.Year = *r.Year
	}
	if r.MMR != nil {
		rec.MMR = *r.MMR
	} else {
		rec.MMRMissing = true
	}
	return rec, ""
}

func fillUnknown(s string) string {
	if isMissing(s) {
		return Unknown
	}
	return s
}

func lowerTrim(s string) string { return strings.TrimSpace(strings.ToLower(s)) }

func upperTrim(s string) string { return strings.TrimSpace(strings.ToUpper(s)) }

// normaliseRecord re-applies the categorical rules to an already typed
// record. It is idempotent on cleaned records.
func normaliseRecord(r Record) Record {
	r.Make = lowerTrim(fillUnknown(r.Make))
	r.Model = lowerTrim(fillUnknown(r.Model))
	r.Trim = fillUnknown(r.Trim)
	r.Body = lowerTrim(fillUnknown(r.Body))
	r.Transmission = fillUnknown(r.Transmission)
	r.Color = fillUnknown(r.Color)
	r.Interior = fillUnknown(r.Interior)
	r.State = upperTrim(fillUnknown(r.State))
	r.SaleDate = naive(r.SaleDate)
	return r
}

// naive converts t to UTC and drops the location.
func naive(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

func parseFloat(s string) *float64 {
	if isMissing(s) {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseYear accepts "2015" and spreadsheet renderings such as "2015.0".
func parseYear(s string) *int {
	f := parseFloat(s)
	if f == nil {
		return nil
	}
	y := int(*f)
	return &y
}

// parseSaleDate tries each layout in order. Unparsable values are missing.
func parseSaleDate(s string, layouts []string) *time.Time {
	if isMissing(s) {
		return nil
	}
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
