package fetcher

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one open pothole ticket as returned by the portal.
type Record struct {
	Status        string     `json:"ticket_status"`
	SubCategory   string     `json:"issue_sub_category"`
	CreatedAt     string     `json:"ticket_created_date_time"`
	StreetAddress Text       `json:"street_address"`
	Latitude      Coordinate `json:"latitude"`
	Longitude     Coordinate `json:"longitude"`
}

// Address returns the street address, or nil when the portal sent null,
// nothing, or a non-string value.
func (r Record) Address() *string {
	if !r.StreetAddress.Valid {
		return nil
	}
	s := r.StreetAddress.Value
	return &s
}

// Coordinates parses latitude and longitude. ok is false when either is
// missing or not a finite number.
func (r Record) Coordinates() (lat, lon float64, ok bool) {
	lat, ok = r.Latitude.Float()
	if !ok {
		return 0, 0, false
	}
	lon, ok = r.Longitude.Float()
	if !ok {
		return 0, 0, false
	}
	return lat, lon, true
}

// Addresses collects Record.Address for every record, preserving order.
func Addresses(records []Record) []*string {
	out := make([]*string, len(records))
	for i, r := range records {
		out[i] = r.Address()
	}
	return out
}

var null = []byte("null")

// Text is a JSON value kept only when it is a string. Any other JSON type
// decodes to the zero Text instead of failing the whole payload.
type Text struct {
	Value string
	Valid bool
}

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = Text{}
	if bytes.Equal(b, null) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	*t = Text{Value: s, Valid: true}
	return nil
}

// Coordinate holds a latitude or longitude exactly as sent. SODA serialises
// numbers as strings, but bare JSON numbers are accepted too.
type Coordinate string

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	*c = ""
	if bytes.Equal(b, null) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Coordinate(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*c = Coordinate(n.String())
	}
	return nil
}

// Float parses c. ok is false for empty, malformed, or non-finite values.
func (c Coordinate) Float() (float64, bool) {
	if c == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(c), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
