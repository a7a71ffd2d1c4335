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
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/photark/photark/archive"
)

func TestCoordKey(t *testing.T) {
	for i, tc := range []struct {
		lat, lon float64
		expect   string
	}{
		{10.5, -20.25, "10.500000,-20.250000"},
		{10.50000049, -20.25, "10.500000,-20.250000"}, // rounds into the same bucket
		{0, 0, "0.000000,0.000000"},
	} {
		if got := CoordKey(tc.lat, tc.lon); got != tc.expect {
			t.Errorf("Test %d: CoordKey(%v, %v) = %q, want %q", i, tc.lat, tc.lon, got, tc.expect)
		}
	}
}

func TestDisplayName(t *testing.T) {
	overrides := map[string]string{
		"123 Main St, Columbus, OH": "Home",
	}
	r := NewResolver(nil, nil, nil, func(addr string) (string, bool) {
		name, ok := overrides[addr]
		return name, ok
	})

	for i, tc := range []struct {
		addr   Address
		expect string
	}{
		{
			// exact override wins
			addr:   Address{HouseNumber: "123", Road: "Main St", City: "Columbus", State: "US-OH"},
			expect: "Home",
		},
		{
			// road known, no override
			addr:   Address{HouseNumber: "50", Road: "High St", City: "Columbus", State: "US-OH"},
			expect: "High St, Columbus, OH",
		},
		{
			// no road
			addr:   Address{City: "Columbus", State: "US-OH"},
			expect: "Columbus, OH",
		},
		{
			// city falls back to town
			addr:   Address{Town: "Granville", State: "US-OH"},
			expect: "Granville, OH",
		},
		{
			// then to county
			addr:   Address{County: "Licking County", State: "US-OH"},
			expect: "Licking County, OH",
		},
		{
			// non-ISO state values pass through untouched
			addr:   Address{City: "Paris", State: "Ile-de-France"},
			expect: "Paris, Ile-de-France",
		},
		{
			// nothing usable
			addr:   Address{HouseNumber: "9"},
			expect: "",
		},
	} {
		if got := r.displayName(tc.addr); got != tc.expect {
			t.Errorf("Test %d: displayName(%+v) = %q, want %q", i, tc.addr, got, tc.expect)
		}
	}
}

func TestStripCountryPrefix(t *testing.T) {
	for i, tc := range []struct {
		in, expect string
	}{
		{"US-OH", "OH"},
		{"CA-ON", "ON"},
		{"OH", "OH"},
		{"", ""},
		{"Ile-de-France", "Ile-de-France"}, // "Il" is not upper-upper
		{"US-", "US-"},
	} {
		if got := stripCountryPrefix(tc.in); got != tc.expect {
			t.Errorf("Test %d: stripCountryPrefix(%q) = %q, want %q", i, tc.in, got, tc.expect)
		}
	}
}

func TestResolveLocationCachesLookups(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{"address": {"road": "High St", "city": "Columbus", "ISO3166-2-lvl4": "US-OH"}}`))
	}))
	defer server.Close()

	cache, err := archive.OpenStore(context.Background(), filepath.Join(t.TempDir(), "geo.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	throttle := archive.NewThrottle(100 * time.Millisecond)
	defer throttle.Stop()

	r := NewResolver(&Client{Endpoint: server.URL, UserAgent: "test"}, cache, throttle, nil)

	ctx := context.Background()
	want := "High St, Columbus, OH"

	if got := r.ResolveLocation(ctx, 40.0000001, -83.0000001); got != want {
		t.Fatalf("first lookup = %q, want %q", got, want)
	}
	// same rounded bucket: served from cache, no second HTTP call
	if got := r.ResolveLocation(ctx, 40.0000004, -83.0000004); got != want {
		t.Fatalf("second lookup = %q, want %q", got, want)
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Errorf("geocoder called %d times, want 1", n)
	}
}

func TestResolveLocationFailureIsEmptyAndUncached(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	cache, err := archive.OpenStore(context.Background(), filepath.Join(t.TempDir(), "geo.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	throttle := archive.NewThrottle(100 * time.Millisecond)
	defer throttle.Stop()

	r := NewResolver(&Client{Endpoint: server.URL, UserAgent: "test"}, cache, throttle, nil)

	ctx := context.Background()
	if got := r.ResolveLocation(ctx, 1, 2); got != "" {
		t.Errorf("failed lookup = %q, want empty", got)
	}
	// failures are not cached, so a retry hits the service again
	if got := r.ResolveLocation(ctx, 1, 2); got != "" {
		t.Errorf("retried lookup = %q, want empty", got)
	}
	if n := atomic.LoadInt64(&calls); n != 2 {
		t.Errorf("geocoder called %d times, want 2", n)
	}
}
