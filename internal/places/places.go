package places

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

//go:embed data/cities.json
var defaultCities []byte

//go:embed data/countries.json
var defaultCountries []byte

// ErrUnknownPlace is returned when a city or country is not in the dataset.
var ErrUnknownPlace = errors.New("unknown place")

// coordinate accepts both numbers and numeric strings; city dumps carry either.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", data, err)
	}
	*c = coordinate(f)
	return nil
}

type cityRecord struct {
	Name    string     `json:"name"`
	Country string     `json:"country"` // ISO country code
	Lat     coordinate `json:"lat"`
	Lon     coordinate `json:"lon"`
}

// Directory resolves country names and city names to coordinates.
type Directory struct {
	codes  map[string]string                // country name -> code
	cities map[string]map[string]cityRecord // code -> city name -> record
}

// Default returns the directory built from the bundled datasets.
func Default() *Directory {
	d, err := Parse(defaultCities, defaultCountries)
	if err != nil {
		panic(fmt.Sprintf("bundled places are invalid: %v", err))
	}
	return d
}

// Load reads the datasets from files. An empty path keeps the bundled dataset.
func Load(citiesPath, countriesPath string) (*Directory, error) {
	cities, countries := defaultCities, defaultCountries
	var err error
	if citiesPath != "" {
		if cities, err = os.ReadFile(citiesPath); err != nil {
			return nil, fmt.Errorf("read cities: %w", err)
		}
	}
	if countriesPath != "" {
		if countries, err = os.ReadFile(countriesPath); err != nil {
			return nil, fmt.Errorf("read countries: %w", err)
		}
	}
	return Parse(cities, countries)
}

// Parse builds a directory from a city list and a country-name to code object.
func Parse(citiesJSON, countriesJSON []byte) (*Directory, error) {
	var records []cityRecord
	if err := json.Unmarshal(citiesJSON, &records); err != nil {
		return nil, fmt.Errorf("decode cities: %w", err)
	}
	d := &Directory{
		codes:  make(map[string]string),
		cities: make(map[string]map[string]cityRecord),
	}
	if err := json.Unmarshal(countriesJSON, &d.codes); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}
	for _, r := range records {
		byName, ok := d.cities[r.Country]
		if !ok {
			byName = make(map[string]cityRecord)
			d.cities[r.Country] = byName
		}
		// name+code identifies a city; the first entry wins
		if _, dup := byName[r.Name]; !dup {
			byName[r.Name] = r
		}
	}
	return d, nil
}

// Countries returns the country names in sorted order.
func (d *Directory) Countries() []string {
	out := make([]string, 0, len(d.codes))
	for name := range d.codes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CitiesFor returns the sorted city names of a country.
func (d *Directory) CitiesFor(country string) ([]string, error) {
	code, ok := d.codes[country]
	if !ok {
		return nil, fmt.Errorf("%w: country %q", ErrUnknownPlace, country)
	}
	out := make([]string, 0, len(d.cities[code]))
	for name := range d.cities[code] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Lookup returns the location of a city in a country.
func (d *Directory) Lookup(city, country string) (weather.Location, error) {
	code, ok := d.codes[country]
	if !ok {
		return weather.Location{}, fmt.Errorf("%w: country %q", ErrUnknownPlace, country)
	}
	r, ok := d.cities[code][strings.TrimSpace(city)]
	if !ok {
		return weather.Location{}, fmt.Errorf("%w: city %q in %s", ErrUnknownPlace, city, country)
	}
	return weather.Location{
		City:      r.Name,
		Country:   country,
		Latitude:  float64(r.Lat),
		Longitude: float64(r.Lon),
	}, nil
}
