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

// Package pkcmd facilitates the command line interface (CLI)
// and implements the main().
package pkcmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/photark/photark/archive"
	"github.com/photark/photark/geocode"
	"go.uber.org/zap"
)

var (
	configFile     = flag.String("config", "photark.json", "path to the config file")
	workers        = flag.Int("workers", 0, "worker count (overrides config)")
	moveDuplicates = flag.Bool("move-duplicates", false, "relocate duplicates into the duplicates area")
	force          = flag.Bool("force", false, "ignore directory watermarks and re-scan everything")
)

// Main runs the program. Individual file failures are logged and do
// not affect the exit status; only an unrecoverable fault (a store
// that cannot be opened, a broken config) exits non-zero.
func Main() {
	flag.Usage = usage
	flag.Parse()

	mode := flag.Arg(0)
	if mode == "" {
		mode = "sync"
	}
	if mode != "sync" && mode != "import" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", mode)
		usage()
		os.Exit(2)
	}

	cfg, err := archive.LoadConfig(*configFile)
	if err != nil {
		archive.Log.Fatal("failed loading config", zap.Error(err))
	}

	ctx := context.Background()

	index, err := archive.OpenStore(ctx, cfg.StorePath)
	if err != nil {
		archive.Log.Fatal("failed opening fingerprint store", zap.Error(err))
	}
	defer index.Close()

	geocache, err := archive.OpenStore(ctx, cfg.GeocodeCachePath)
	if err != nil {
		archive.Log.Fatal("failed opening geocode cache", zap.Error(err))
	}
	defer geocache.Close()

	throttle := archive.NewThrottle(cfg.GeocodeThrottleInterval())
	defer throttle.Stop()

	resolver := geocode.NewResolver(
		&geocode.Client{
			Endpoint:  cfg.GeocodeEndpoint,
			UserAgent: cfg.GeocodeUserAgent,
		},
		geocache,
		throttle,
		cfg.LocationOverride,
	)

	arc := archive.New(cfg, index, resolver)

	_, err = arc.Run(ctx, archive.Options{
		Import:         mode == "import",
		MoveDuplicates: *moveDuplicates,
		Force:          *force,
		Workers:        *workers,
	})
	if err != nil {
		archive.Log.Fatal("run failed", zap.Error(err))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: photark [flags] [command]

Commands:
  sync     synchronize the archive tree in place (default)
  import   ingest files from the staging directory (copies, preserves sources)

Flags:
`)
	flag.PrintDefaults()
}
