// Package geo resolves signup IPs to countries using a local MaxMind
// GeoLite2 database. Enrichment is optional and best-effort.
package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Resolver maps IP addresses to ISO country codes.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens a GeoLite2 database file.
func NewResolver(dbPath string) (*Resolver, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Country returns the ISO country code for an IP, or "" when the IP is
// unparsable or the database has no match.
func (r *Resolver) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

// Close closes the underlying database.
func (r *Resolver) Close() error {
	if r.reader != nil {
		return r.reader.Close()
	}
	return nil
}
