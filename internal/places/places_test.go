package places

import (
	"errors"
	"testing"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/require"
)

func TestDefaultDirectory(t *testing.T) {
	d := Default()

	countries := d.Countries()
	require.Contains(t, countries, "United Kingdom")
	require.IsIncreasing(t, countries)

	cities, err := d.CitiesFor("United Kingdom")
	require.NoError(t, err)
	require.Equal(t, []string{"Cardiff", "Edinburgh", "London", "Manchester"}, cities)

	loc, err := d.Lookup("London", "United Kingdom")
	require.NoError(t, err)
	require.InDelta(t, 51.50853, loc.Latitude, 1e-9)
	require.InDelta(t, -0.12574, loc.Longitude, 1e-9)
	require.Equal(t, "United Kingdom", loc.Country)
}

func TestParseAcceptsNumericCoordinates(t *testing.T) {
	d, err := Parse(
		[]byte(`[{"name": "Oslo", "country": "NO", "lat": 59.91, "lon": "10.75"}]`),
		[]byte(`{"Norway": "NO"}`),
	)
	require.NoError(t, err)
	loc, err := d.Lookup("Oslo", "Norway")
	require.NoError(t, err)
	require.Equal(t, 59.91, loc.Latitude)
	require.Equal(t, 10.75, loc.Longitude)
}

func TestLookupUnknown(t *testing.T) {
	d := Default()
	_, err := d.Lookup("Atlantis", "United Kingdom")
	require.ErrorIs(t, err, ErrUnknownPlace)
	_, err = d.CitiesFor("Narnia")
	require.ErrorIs(t, err, ErrUnknownPlace)
}

func TestResolverFallsBackToGeocoder(t *testing.T) {
	var asked geocoder.Address
	r := NewResolver(Default(), "").WithGeocoder(func(a geocoder.Address) (geocoder.Location, error) {
		asked = a
		return geocoder.Location{Latitude: 51.75, Longitude: -1.25}, nil
	})

	loc, err := r.Resolve("Oxford", "United Kingdom")
	require.NoError(t, err)
	require.Equal(t, "Oxford", asked.City)
	require.Equal(t, 51.75, loc.Latitude)

	// Directory hits never reach the geocoder.
	asked = geocoder.Address{}
	_, err = r.Resolve("London", "United Kingdom")
	require.NoError(t, err)
	require.Empty(t, asked.City)
}

func TestResolverGeocoderFailure(t *testing.T) {
	r := NewResolver(Default(), "").WithGeocoder(func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("quota")
	})
	_, err := r.Resolve("Oxford", "United Kingdom")
	require.ErrorIs(t, err, ErrUnknownPlace)
}

func TestResolverWithoutKey(t *testing.T) {
	_, err := NewResolver(Default(), "").Resolve("Oxford", "United Kingdom")
	require.ErrorIs(t, err, ErrUnknownPlace)
}
