package domain

import (
	"fmt"
	"strings"
)

// Geolocation is an optional point attached to a destination.
type Geolocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate rejects coordinates outside [-90,90] x [-180,180].
func (g Geolocation) Validate() error {
	if g.Lat < -90 || g.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrValidation, g.Lat)
	}
	if g.Lng < -180 || g.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrValidation, g.Lng)
	}
	return nil
}

// Destination is one place visited on the trip and why.
type Destination struct {
	name     string
	reason   string
	location *Geolocation
}

func (d Destination) Name() string   { return d.name }
func (d Destination) Reason() string { return d.reason }

// Location returns the destination's point and whether one was set.
func (d Destination) Location() (Geolocation, bool) {
	if d.location == nil {
		return Geolocation{}, false
	}
	return *d.location, true
}

// Equal compares name, reason and location.
func (d Destination) Equal(o Destination) bool {
	if d.name != o.name || d.reason != o.reason {
		return false
	}
	if (d.location == nil) != (o.location == nil) {
		return false
	}
	return d.location == nil || *d.location == *o.location
}

func (d Destination) Validate() error {
	if strings.TrimSpace(d.name) == "" {
		return fmt.Errorf("%w: destination name is required", ErrValidation)
	}
	if d.location != nil {
		return d.location.Validate()
	}
	return nil
}

// Edit returns a builder seeded with d.
func (d Destination) Edit() *DestinationBuilder {
	return &DestinationBuilder{d: d}
}

// DestinationBuilder stages a Destination. Reason defaults to empty and
// location to unset; name must be set before Build.
type DestinationBuilder struct {
	builderErr
	d Destination
}

func NewDestinationBuilder() *DestinationBuilder {
	return &DestinationBuilder{}
}

func (b *DestinationBuilder) Name(name string) *DestinationBuilder {
	if b.failed() {
		return b
	}
	name = strings.TrimSpace(name)
	if name == "" {
		b.fail("destination name is required")
		return b
	}
	b.d.name = name
	return b
}

func (b *DestinationBuilder) Reason(reason string) *DestinationBuilder {
	if !b.failed() {
		b.d.reason = strings.TrimSpace(reason)
	}
	return b
}

func (b *DestinationBuilder) Location(g Geolocation) *DestinationBuilder {
	if b.failed() {
		return b
	}
	if err := g.Validate(); err != nil {
		b.failWith(err)
		return b
	}
	b.d.location = &g
	return b
}

func (b *DestinationBuilder) ClearLocation() *DestinationBuilder {
	if !b.failed() {
		b.d.location = nil
	}
	return b
}

func (b *DestinationBuilder) Build() (Destination, error) {
	if b.err != nil {
		return Destination{}, b.err
	}
	if b.d.name == "" {
		return Destination{}, fmt.Errorf("%w: destination name is required", ErrValidation)
	}
	return b.d, nil
}
