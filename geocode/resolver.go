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

package geocode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/photark/photark/archive"
	"go.uber.org/zap"
)

// Reverser maps a coordinate to address fields.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (Address, error)
}

// Resolver memoizes reverse-geocode lookups in a persistent cache
// keyed by rounded coordinate, and serializes uncached calls through a
// shared throttle regardless of how many workers need one. Cache
// entries are immutable and kept indefinitely.
type Resolver struct {
	client    Reverser
	cache     *archive.Store
	throttle  *archive.Throttle
	overrides func(string) (string, bool)
	log       *zap.Logger
}

// NewResolver wires a resolver. overrides maps exact address strings
// to preferred display names and may be nil.
func NewResolver(client Reverser, cache *archive.Store, throttle *archive.Throttle, overrides func(string) (string, bool)) *Resolver {
	if overrides == nil {
		overrides = func(string) (string, bool) { return "", false }
	}
	return &Resolver{
		client:    client,
		cache:     cache,
		throttle:  throttle,
		overrides: overrides,
		log:       archive.Log.Named("geocode"),
	}
}

// CoordKey canonicalizes a coordinate to the cache key: both axes
// rounded to 6 decimals. Coordinates that round to the same bucket
// share one lookup forever.
func CoordKey(lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}

// ResolveLocation returns the display name for a coordinate, or ""
// when no address can be resolved. A cache miss blocks on the shared
// throttle before calling the external service; service failures
// degrade to "" and are not cached, so a later run can retry.
func (r *Resolver) ResolveLocation(ctx context.Context, lat, lon float64) string {
	key := []byte(CoordKey(lat, lon))

	if raw, ok := r.cache.Get(key); ok {
		var addr Address
		if err := json.Unmarshal(raw, &addr); err != nil {
			r.log.Error("decoding cached address",
				zap.ByteString("key", key),
				zap.Error(err))
			return ""
		}
		return r.displayName(addr)
	}

	r.throttle.Acquire()

	addr, err := r.client.Reverse(ctx, lat, lon)
	if err != nil {
		r.log.Warn("reverse geocode failed; continuing without location",
			zap.ByteString("key", key),
			zap.Error(err))
		return ""
	}
	if addr.IsZero() {
		r.log.Debug("reverse geocode returned no address", zap.ByteString("key", key))
		return ""
	}

	raw, err := json.Marshal(addr)
	if err != nil {
		r.log.Error("encoding address for cache",
			zap.ByteString("key", key),
			zap.Error(err))
	} else {
		// conditional insert: entries are immutable, and a concurrent
		// worker may have cached this bucket while we were looking it up
		r.cache.Put(key, raw, false)
	}

	return r.displayName(addr)
}

// displayName applies the display-string rules: an exact override for
// "{house_number} {road}, {city}, {state}" wins; then
// "{road}, {city}, {state}" when the road is known; then
// "{city}, {state}".
func (r *Resolver) displayName(addr Address) string {
	city := addr.City
	if city == "" {
		city = addr.Town
	}
	if city == "" {
		city = addr.County
	}

	state := stripCountryPrefix(addr.State)

	if city == "" && state == "" {
		return ""
	}

	lookup := fmt.Sprintf("%s %s, %s, %s", addr.HouseNumber, addr.Road, city, state)
	if name, ok := r.overrides(lookup); ok {
		return name
	}

	if addr.Road != "" {
		return fmt.Sprintf("%s, %s, %s", addr.Road, city, state)
	}
	return fmt.Sprintf("%s, %s", city, state)
}

// stripCountryPrefix removes a leading two-letter country code of the
// form "XX-" from an ISO 3166-2 subdivision code, leaving just the
// subdivision ("US-OH" -> "OH").
func stripCountryPrefix(state string) string {
	if len(state) > 3 && state[2] == '-' &&
		isUpperAlpha(state[0]) && isUpperAlpha(state[1]) {
		return state[3:]
	}
	return state
}

func isUpperAlpha(c byte) bool { return c >= 'A' && c <= 'Z' }
