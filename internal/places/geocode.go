package places

import (
	"errors"
	"fmt"
	"log"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// GeocodeFunc resolves an address to coordinates.
type GeocodeFunc func(geocoder.Address) (geocoder.Location, error)

// Resolver looks cities up in the directory and falls back to a geocoding
// service for cities the dataset does not carry.
type Resolver struct {
	dir     *Directory
	geocode GeocodeFunc // nil disables the fallback
}

// NewResolver creates a resolver. With an empty apiKey only the directory is used.
func NewResolver(dir *Directory, apiKey string) *Resolver {
	r := &Resolver{dir: dir}
	if apiKey != "" {
		geocoder.ApiKey = apiKey
		r.geocode = geocoder.Geocoding
	}
	return r
}

// WithGeocoder replaces the geocoding call.
func (r *Resolver) WithGeocoder(fn GeocodeFunc) *Resolver {
	r.geocode = fn
	return r
}

// Directory returns the underlying dataset.
func (r *Resolver) Directory() *Directory {
	return r.dir
}

// Resolve returns the location of a city in a country.
func (r *Resolver) Resolve(city, country string) (weather.Location, error) {
	loc, err := r.dir.Lookup(city, country)
	if err == nil || r.geocode == nil || !errors.Is(err, ErrUnknownPlace) {
		return loc, err
	}

	log.Printf("INFO: %s, %s not in dataset; geocoding", city, country)
	found, gerr := r.geocode(geocoder.Address{City: city, Country: country})
	if gerr != nil {
		return weather.Location{}, fmt.Errorf("%w: geocoding %s, %s: %v", ErrUnknownPlace, city, country, gerr)
	}
	return weather.Location{
		City:      city,
		Country:   country,
		Latitude:  found.Latitude,
		Longitude: found.Longitude,
	}, nil
}
