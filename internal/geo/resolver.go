// Package geo resolves source addresses to geographic enrichment using a
// local MaxMind database. Enrichment is best-effort: a missing database or a
// failed lookup never blocks ingest.
package geo

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/oschwald/maxminddb-golang"
	"go.uber.org/zap"
)

// Location is the subset of GeoIP data the intake pipeline consumes.
type Location struct {
	CountryCode string
	CountryName string
	RegionCode  string
	RegionName  string
	City        string
	Latitude    float64
	Longitude   float64
	Timezone    string
}

// Resolver looks up enrichment for an address. Implementations return
// ok=false when nothing is known for the address.
type Resolver interface {
	Lookup(addr netip.Addr) (*Location, bool)
}

// mmdbRecord maps the GeoLite2-City layout onto Location fields.
type mmdbRecord struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Subdivisions []struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
		TimeZone  string  `maxminddb:"time_zone"`
	} `maxminddb:"location"`
}

// MaxMindResolver reads a GeoLite2/GeoIP2 City database file.
type MaxMindResolver struct {
	reader *maxminddb.Reader
	logger *zap.Logger
}

// Open loads the database at path.
func Open(path string, logger *zap.Logger) (*MaxMindResolver, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &MaxMindResolver{reader: reader, logger: logger}, nil
}

// Lookup resolves addr. Private and unknown addresses return ok=false.
func (r *MaxMindResolver) Lookup(addr netip.Addr) (*Location, bool) {
	var rec mmdbRecord
	if err := r.reader.Lookup(net.IP(addr.AsSlice()), &rec); err != nil {
		r.logger.Debug("geoip lookup failed", zap.String("addr", addr.String()), zap.Error(err))
		return nil, false
	}
	if rec.Country.ISOCode == "" {
		return nil, false
	}

	loc := &Location{
		CountryCode: rec.Country.ISOCode,
		CountryName: rec.Country.Names["en"],
		City:        rec.City.Names["en"],
		Latitude:    rec.Location.Latitude,
		Longitude:   rec.Location.Longitude,
		Timezone:    rec.Location.TimeZone,
	}
	if len(rec.Subdivisions) > 0 {
		loc.RegionCode = rec.Subdivisions[0].ISOCode
		loc.RegionName = rec.Subdivisions[0].Names["en"]
	}
	return loc, true
}

// Close releases the underlying database file.
func (r *MaxMindResolver) Close() error {
	return r.reader.Close()
}

// NoopResolver is used when no database is configured.
type NoopResolver struct{}

// Lookup always reports no data.
func (NoopResolver) Lookup(netip.Addr) (*Location, bool) { return nil, false }
