/*
	Photark
	Copyright (c) 2026 The Photark Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package geocode resolves coordinates to human-readable place names
// through a Nominatim-style reverse-geocoding service, memoizing
// results per rounded coordinate and honoring the service's rate
// limit.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Address is the set of fields we keep from a reverse-geocode
// response. An all-empty Address means the lookup failed or the
// service knew nothing about the coordinate.
type Address struct {
	HouseNumber string `json:"house_number,omitempty"`
	Road        string `json:"road,omitempty"`
	City        string `json:"city,omitempty"`
	Town        string `json:"town,omitempty"`
	County      string `json:"county,omitempty"`

	// State is the ISO 3166-2 subdivision code, e.g. "US-OH".
	State string `json:"ISO3166-2-lvl4,omitempty"`
}

// IsZero reports whether no field of the address is set.
func (a Address) IsZero() bool { return a == Address{} }

// Client calls a Nominatim-compatible reverse-geocoding endpoint.
type Client struct {
	// Endpoint is the reverse-lookup URL, e.g.
	// "https://nominatim.openstreetmap.org/reverse".
	Endpoint string

	// UserAgent identifies this tool; public Nominatim requires one.
	UserAgent string

	// HTTPClient is used for requests; a default with a sane timeout
	// is used if nil.
	HTTPClient *http.Client
}

// Reverse maps a coordinate to an address. Failures are returned to
// the caller; the resolver above decides how to degrade.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	endpoint, err := url.Parse(c.Endpoint)
	if err != nil {
		return Address{}, fmt.Errorf("parsing geocode endpoint: %w", err)
	}

	q := endpoint.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "jsonv2")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Address{}, fmt.Errorf("building reverse-geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("calling reverse geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, fmt.Errorf("reverse geocoder returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Address Address `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Address{}, fmt.Errorf("decoding reverse-geocode response: %w", err)
	}

	return body.Address, nil
}

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}
