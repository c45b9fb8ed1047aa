package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Request is a user's weather selection.
type Request struct {
	Mode     Mode
	Location Location
	Fields   []string // human field names; empty selects every option of the mode
	Bounds   Bounds
}

// Service runs the resolve, build, fetch and decode pipeline.
type Service struct {
	mapping  *FieldMapping
	provider Provider
	units    UnitSystem
}

// NewService creates a new Service.
func NewService(mapping *FieldMapping, provider Provider) *Service {
	return &Service{
		mapping:  mapping,
		provider: provider,
		units:    DefaultUnits,
	}
}

// Mapping returns the field mapping the service resolves against.
func (s *Service) Mapping() *FieldMapping {
	return s.mapping
}

// Query fetches and decodes weather data for a request.
func (s *Service) Query(ctx context.Context, req Request) (*DecodedTable, error) {
	names := req.Fields
	if len(names) == 0 {
		names = s.mapping.Options(req.Mode)
	}

	wire, err := s.mapping.Resolve(req.Mode, names)
	if err != nil {
		var unknown *UnknownFieldError
		if errors.As(err, &unknown) {
			log.Printf("ERROR: field mapping is missing %s field %q", unknown.Mode, unknown.Field)
		}
		return nil, err
	}

	spec, err := Build(req.Mode, req.Location, s.units, wire, req.Bounds)
	if err != nil {
		return nil, err
	}

	if s.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrProviderUnavailable)
	}

	log.Printf("DEBUG: querying %s %s data for %s (%d params)", s.provider.Name(), req.Mode, req.Location.Key(), len(wire))
	raw, err := s.provider.Fetch(ctx, spec)
	if err != nil {
		log.Printf("provider %s fetch failed for %s: %v", s.provider.Name(), req.Location.Key(), err)
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	table, err := Decode(s.mapping, req.Mode, raw, names)
	if err != nil {
		log.Printf("ERROR: %s reply for %s could not be decoded: %v", s.provider.Name(), req.Location.Key(), err)
		return nil, err
	}
	return table, nil
}
