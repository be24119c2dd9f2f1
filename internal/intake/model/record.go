// Package model defines the validated domain types for honeypot telemetry:
// the interaction record submitted by upstream sensors and the USB-drop
// beacon payload. Records are immutable once constructed; the only permitted
// write is a one-time geo back-fill before any consumer reads them.
package model

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"regexp"
	"time"
)

// ErrValidation is returned when the caller supplies invalid input.
// Handlers map it to HTTP 400.
type ErrValidation struct{ Msg string }

func (e *ErrValidation) Error() string { return e.Msg }

// Limits caps the serialized size of the open key-value bags carried on a
// record. Zero values fall back to the defaults below.
type Limits struct {
	MaxInteractionBytes int
	MaxGeoBytes         int
}

const (
	DefaultMaxInteractionBytes = 16384
	DefaultMaxGeoBytes         = 4096

	maxKindLen       = 32
	maxStatusLen     = 32
	maxHoneypotIDLen = 64
)

// tokenRe constrains honeypot_type and status to short alphanumeric tokens.
var tokenRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// InteractionRecord is one validated honeypot event.
type InteractionRecord struct {
	SourceIP        netip.Addr     `json:"source_ip"`
	HoneypotKind    string         `json:"honeypot_type"`
	InteractionData map[string]any `json:"interaction_data"`
	Status          string         `json:"status"`
	HoneypotID      string         `json:"honeypot_id,omitempty"`
	OccurredAt      *time.Time     `json:"timestamp,omitempty"`

	// Geo enrichment. Consumed only by prompt assembly and persistence,
	// never by the classifier.
	GeoLocation  map[string]any `json:"geo_location,omitempty"`
	CountryCode  string         `json:"country_code,omitempty"`
	CountryName  string         `json:"country_name,omitempty"`
	RegionCode   string         `json:"region_code,omitempty"`
	RegionName   string         `json:"region_name,omitempty"`
	City         string         `json:"city,omitempty"`
	Latitude     *float64       `json:"latitude,omitempty"`
	Longitude    *float64       `json:"longitude,omitempty"`
	Timezone     string         `json:"timezone,omitempty"`
	ISP          string         `json:"isp,omitempty"`
	Organization string         `json:"organization,omitempty"`

	geoFilled bool
}

// EventRequest is the inbound JSON payload for the ingest endpoint.
// Gin binds it; ToRecord performs the semantic validation.
type EventRequest struct {
	SourceIP        string         `json:"source_ip"     binding:"required"`
	HoneypotKind    string         `json:"honeypot_type" binding:"required"`
	InteractionData map[string]any `json:"interaction_data"`
	Status          string         `json:"status"`
	HoneypotID      string         `json:"honeypot_id"`
	Timestamp       string         `json:"timestamp"`

	GeoLocation  map[string]any `json:"geo_location"`
	CountryCode  string         `json:"country_code"`
	CountryName  string         `json:"country_name"`
	RegionCode   string         `json:"region_code"`
	RegionName   string         `json:"region_name"`
	City         string         `json:"city"`
	Latitude     *float64       `json:"latitude"`
	Longitude    *float64       `json:"longitude"`
	Timezone     string         `json:"timezone"`
	ISP          string         `json:"isp"`
	Organization string         `json:"organization"`
}

// ToRecord validates the request and constructs an immutable record.
func (r *EventRequest) ToRecord(limits Limits) (*InteractionRecord, error) {
	ip, err := netip.ParseAddr(r.SourceIP)
	if err != nil {
		return nil, &ErrValidation{Msg: "source_ip must be a valid IPv4 or IPv6 address"}
	}

	if r.HoneypotKind == "" || len(r.HoneypotKind) > maxKindLen || !tokenRe.MatchString(r.HoneypotKind) {
		return nil, &ErrValidation{Msg: "honeypot_type must be a short alphanumeric token"}
	}

	status := r.Status
	if status == "" {
		status = "logged"
	}
	if len(status) > maxStatusLen || !tokenRe.MatchString(status) {
		return nil, &ErrValidation{Msg: "status must be a short alphanumeric token"}
	}

	if len(r.HoneypotID) > maxHoneypotIDLen {
		return nil, &ErrValidation{Msg: "honeypot_id too long"}
	}

	data := r.InteractionData
	if data == nil {
		data = map[string]any{}
	}
	maxData := limits.MaxInteractionBytes
	if maxData <= 0 {
		maxData = DefaultMaxInteractionBytes
	}
	if err := checkSerializedSize("interaction_data", data, maxData); err != nil {
		return nil, err
	}

	maxGeo := limits.MaxGeoBytes
	if maxGeo <= 0 {
		maxGeo = DefaultMaxGeoBytes
	}
	if r.GeoLocation != nil {
		if err := checkSerializedSize("geo_location", r.GeoLocation, maxGeo); err != nil {
			return nil, err
		}
	}

	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return nil, &ErrValidation{Msg: "latitude must be between -90 and 90"}
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return nil, &ErrValidation{Msg: "longitude must be between -180 and 180"}
	}

	var occurredAt *time.Time
	if r.Timestamp != "" {
		t, err := parseTimestamp(r.Timestamp)
		if err != nil {
			return nil, &ErrValidation{Msg: "timestamp must be ISO8601 formatted"}
		}
		occurredAt = &t
	}

	return &InteractionRecord{
		SourceIP:        ip,
		HoneypotKind:    r.HoneypotKind,
		InteractionData: data,
		Status:          status,
		HoneypotID:      r.HoneypotID,
		OccurredAt:      occurredAt,
		GeoLocation:     r.GeoLocation,
		CountryCode:     r.CountryCode,
		CountryName:     r.CountryName,
		RegionCode:      r.RegionCode,
		RegionName:      r.RegionName,
		City:            r.City,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Timezone:        r.Timezone,
		ISP:             r.ISP,
		Organization:    r.Organization,
	}, nil
}

// checkSerializedSize enforces the byte ceiling on an open key-value bag.
func checkSerializedSize(field string, bag map[string]any, max int) error {
	raw, err := json.Marshal(bag)
	if err != nil {
		return &ErrValidation{Msg: field + " must be JSON serializable"}
	}
	if len(raw) > max {
		return &ErrValidation{Msg: fmt.Sprintf("%s exceeds maximum allowed size of %d bytes", field, max)}
	}
	return nil
}

// parseTimestamp accepts RFC 3339 and the common ISO 8601 variants sensors emit.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// BackfillGeo copies fields out of the geo_location bag into the typed geo
// columns. It runs at most once per record; later calls are no-ops, which
// keeps the record effectively immutable after the first consumer reads it.
// Already-populated fields are left alone.
func (rec *InteractionRecord) BackfillGeo() {
	if rec.geoFilled {
		return
	}
	rec.geoFilled = true
	geo := rec.GeoLocation
	if geo == nil {
		return
	}

	fill := func(dst *string, key string) {
		if *dst == "" {
			if v, ok := geo[key].(string); ok {
				*dst = v
			}
		}
	}
	fill(&rec.CountryCode, "country_code")
	fill(&rec.CountryName, "country_name")
	fill(&rec.RegionCode, "region_code")
	fill(&rec.RegionName, "region_name")
	fill(&rec.City, "city")
	fill(&rec.Timezone, "timezone")
	fill(&rec.ISP, "isp")
	fill(&rec.Organization, "organization")

	if rec.Latitude == nil {
		if v, ok := geoFloat(geo["latitude"]); ok && v >= -90 && v <= 90 {
			rec.Latitude = &v
		}
	}
	if rec.Longitude == nil {
		if v, ok := geoFloat(geo["longitude"]); ok && v >= -180 && v <= 180 {
			rec.Longitude = &v
		}
	}
}

// geoFloat coerces a JSON-decoded numeric value.
func geoFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// StripBannerNUL removes NUL bytes from the SSH client banner before
// persistence. SSH honeypots occasionally capture raw banner bytes, and NUL
// in a jsonb column is rejected by Postgres.
func (rec *InteractionRecord) StripBannerNUL() {
	if rec.HoneypotKind != "ssh" {
		return
	}
	banner, ok := rec.InteractionData["client_banner"].(string)
	if !ok {
		return
	}
	cleaned := make([]byte, 0, len(banner))
	for i := 0; i < len(banner); i++ {
		if banner[i] != 0 {
			cleaned = append(cleaned, banner[i])
		}
	}
	rec.InteractionData["client_banner"] = string(cleaned)
}
