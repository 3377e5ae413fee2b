// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages.
package shared

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// NomadID represents a unique nomad identifier. IDs are opaque strings
// issued by the external identity system; the only structural requirement
// here is the UUID shape they arrive in.
type NomadID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the nomad ID is a valid UUID.
func (n NomadID) IsValid() bool {
	return uuidRegex.MatchString(string(n))
}

// String returns the string representation.
func (n NomadID) String() string {
	return string(n)
}

// IsEmpty checks if the ID is empty.
func (n NomadID) IsEmpty() bool {
	return n == ""
}

// NewNomadID creates a new NomadID with validation.
func NewNomadID(id string) (NomadID, error) {
	nid := NomadID(strings.ToLower(strings.TrimSpace(id)))
	if !nid.IsValid() {
		return "", ErrInvalidNomadID
	}
	return nid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Coordinate Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Coordinate represents a geographic position in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// IsValid checks that both components are finite and within range.
func (c Coordinate) IsValid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	if math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Validate returns the specific validation error for an invalid coordinate.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		c.Latitude < -90 || c.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) ||
		c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// NewCoordinate creates a new Coordinate with validation.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Timezone Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Timezone represents an IANA timezone name (e.g., "Asia/Bangkok").
type Timezone string

// String returns the string representation.
func (t Timezone) String() string {
	return string(t)
}

// IsValid checks that the name resolves against the IANA database.
func (t Timezone) IsValid() bool {
	if t == "" {
		return false
	}
	_, err := time.LoadLocation(string(t))
	return err == nil
}

// NewTimezone creates a new Timezone with validation.
func NewTimezone(name string) (Timezone, error) {
	tz := Timezone(strings.TrimSpace(name))
	if !tz.IsValid() {
		return "", ErrInvalidTimezone
	}
	return tz, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}
