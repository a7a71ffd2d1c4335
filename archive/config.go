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

package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config describes the archive configuration.
// Config values must not be copied (i.e. use pointers).
type Config struct {
	sync.RWMutex `json:"-"`

	// The root folder of the archive. Synchronize runs walk this
	// tree; placement computes destinations beneath it.
	ArchiveRoot string `json:"archive_root,omitempty"`

	// The folder new files are imported from. Files here are always
	// evaluated as new-or-duplicate and are copied, not moved.
	StagingDir string `json:"staging_dir,omitempty"`

	// Where relocated duplicates go, preserving their path relative
	// to the scanned root.
	DuplicatesDir string `json:"duplicates_dir,omitempty"`

	// Exact filenames that are never processed (e.g. ".DS_Store").
	SkipFiles []string `json:"skip_files,omitempty"`

	// Maps exact address strings, keyed in the form
	// "{house_number} {road}, {city}, {state}", to preferred
	// display names.
	Locations map[string]string `json:"locations,omitempty"`

	// Paths of the fingerprint store and the geocode cache files.
	StorePath        string `json:"store_path,omitempty"`
	GeocodeCachePath string `json:"geocode_cache_path,omitempty"`

	// Number of file-processing workers per directory batch.
	Workers int `json:"workers,omitempty"`

	// The reverse-geocoding endpoint and the User-Agent it requires.
	GeocodeEndpoint  string `json:"geocode_endpoint,omitempty"`
	GeocodeUserAgent string `json:"geocode_user_agent,omitempty"`

	// Minimum spacing between reverse-geocode calls, in seconds,
	// across the whole process.
	GeocodeIntervalSeconds int `json:"geocode_interval_seconds,omitempty"`

	log *zap.Logger
}

// LoadConfig reads the config file at path and fills defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := new(Config)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}

	cfg.fillDefaults()

	if cfg.ArchiveRoot == "" {
		return nil, fmt.Errorf("config %s: archive_root is required", path)
	}

	return cfg, nil
}

func (cfg *Config) fillDefaults() {
	cfg.Lock()
	defer cfg.Unlock()
	if cfg.log == nil {
		cfg.log = Log.Named("config").With(zap.Time("loaded", time.Now()))
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.GeocodeEndpoint == "" {
		cfg.GeocodeEndpoint = defaultGeocodeEndpoint
	}
	if cfg.GeocodeUserAgent == "" {
		cfg.GeocodeUserAgent = defaultGeocodeUserAgent
	}
	if cfg.GeocodeIntervalSeconds <= 0 {
		cfg.GeocodeIntervalSeconds = defaultGeocodeIntervalSeconds
	}
	if cfg.DuplicatesDir == "" && cfg.ArchiveRoot != "" {
		cfg.DuplicatesDir = filepath.Join(filepath.Dir(cfg.ArchiveRoot), "duplicates")
	}
	if cfg.StorePath == "" {
		cfg.StorePath = defaultStorePath
	}
	if cfg.GeocodeCachePath == "" {
		cfg.GeocodeCachePath = defaultGeocodeCachePath
	}
}

// SkipFile reports whether filename is in the always-skipped set.
func (cfg *Config) SkipFile(filename string) bool {
	cfg.RLock()
	defer cfg.RUnlock()
	for _, name := range cfg.SkipFiles {
		if name == filename {
			return true
		}
	}
	return false
}

// LocationOverride returns the preferred display name for the exact
// address string, if one is configured.
func (cfg *Config) LocationOverride(address string) (string, bool) {
	cfg.RLock()
	defer cfg.RUnlock()
	name, ok := cfg.Locations[address]
	return name, ok
}

const (
	defaultWorkers          = 4
	defaultGeocodeEndpoint  = "https://nominatim.openstreetmap.org/reverse"
	defaultGeocodeUserAgent = "Photark"

	defaultStorePath        = "photark-index.db"
	defaultGeocodeCachePath = "photark-geocache.db"

	defaultGeocodeIntervalSeconds = 5
)

// GeocodeThrottleInterval returns the configured spacing between
// reverse-geocode calls as a duration.
func (cfg *Config) GeocodeThrottleInterval() time.Duration {
	cfg.RLock()
	defer cfg.RUnlock()
	return time.Duration(cfg.GeocodeIntervalSeconds) * time.Second
}
