package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/seismic-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

var assessFlags struct {
	lat, lon         float64
	magnitude, depth float64
	site, place      string
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score a single location",
	Example: `  georisk assess --lat 37.7749 --lon -122.4194 --magnitude 7 --depth 10
  georisk assess --site Tokyo
  georisk assess --place "Anchorage, Alaska" --magnitude 6.5`,
	RunE: runAssess,
}

func init() {
	f := assessCmd.Flags()
	f.Float64Var(&assessFlags.lat, "lat", 0, "latitude in degrees")
	f.Float64Var(&assessFlags.lon, "lon", 0, "longitude in degrees")
	f.Float64Var(&assessFlags.magnitude, "magnitude", 0, "earthquake magnitude (0-10)")
	f.Float64Var(&assessFlags.depth, "depth", 0, "hypocentre depth in km (0-700)")
	f.StringVar(&assessFlags.site, "site", "", "name of a catalog site to assess")
	f.StringVar(&assessFlags.place, "place", "", "place name to geocode (requires MAPBOX_TOKEN)")
	assessCmd.MarkFlagsRequiredTogether("lat", "lon")
	assessCmd.MarkFlagsMutuallyExclusive("lat", "site")
	assessCmd.MarkFlagsMutuallyExclusive("lat", "place")
	assessCmd.MarkFlagsMutuallyExclusive("site", "place")
	assessCmd.MarkFlagsOneRequired("lat", "site", "place")
}

func runAssess(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	msg := domain.AssessmentMessage{Place: assessFlags.place}
	if flags.Changed("lat") {
		msg.Lat, msg.Lon = &assessFlags.lat, &assessFlags.lon
	}
	if flags.Changed("magnitude") {
		msg.Magnitude = &assessFlags.magnitude
	}
	if flags.Changed("depth") {
		msg.Depth = &assessFlags.depth
	}
	if assessFlags.site != "" {
		site, ok := engine.Catalog().Site(assessFlags.site)
		if !ok {
			return fmt.Errorf("unknown site %q", assessFlags.site)
		}
		msg.Lat, msg.Lon = &site.Location.Lat, &site.Location.Lon
		msg.Place = site.Name
	}

	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, nil, logger)
	}

	msg, geo, err := domain.ResolveLocation(cmd.Context(), msg, geocoder, logger)
	if err != nil {
		return err
	}
	req, err := msg.Request()
	if err != nil {
		return err
	}
	a, err := engine.Assess(req)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), domain.NewAssessmentEvent(msg, geo, a))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

