package farmctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/farmai/internal/client"
	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

var errNoPolygon = errors.New("a parcel is required: use --polygon or --geojson")

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a parcel and print its report",
		Long: `Analyze sends the parcel to the farmai API and prints soil, climate,
crop compatibility and economic scenarios.

Examples:
  # Parcel as lng,lat pairs separated by ';'
  farmctl analyze --polygon "-93.10,41.50;-93.09,41.50;-93.09,41.51;-93.10,41.51"

  # Parcel from a GeoJSON Polygon or Feature, markdown report to a file
  farmctl analyze --geojson field.json -f markdown -o reports/field.md

  # Run the agent swarm on the result
  farmctl analyze --geojson field.json --swarm`,
		Args: cobra.NoArgs,
		RunE: runAnalyzeCmd,
	}
	cmd.Flags().StringP("polygon", "p", "", "parcel ring as 'lng,lat;lng,lat;...'")
	cmd.Flags().StringP("geojson", "g", "", "file holding a GeoJSON Polygon or Feature")
	cmd.Flags().Float64P("acres", "a", 0, "parcel area in acres (computed from the polygon when 0)")
	cmd.Flags().Bool("swarm", false, "run the remediation, procurement and finance agents afterwards")
	addFormatFlags(cmd)
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	polygon, err := polygonFromFlags(cmd)
	if err != nil {
		return err
	}
	acres, _ := cmd.Flags().GetFloat64("acres")
	withSwarm, _ := cmd.Flags().GetBool("swarm")

	ctx, cancel := commandContext(cmd)
	defer cancel()

	orch := client.NewOrchestrator(apiClient(cmd), client.NewStore())
	a, err := orch.Analyze(ctx, polygon, acres)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	logrus.WithField("analysis_id", a.ID).Debug("farmctl: analysis done")

	if withSwarm {
		if err := orch.RunForAnalysis(ctx); err != nil {
			// the failure is part of the report
			logrus.WithError(err).Warn("farmctl: swarm failed")
		}
	}

	w, closeOut, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	if err := WriteReport(w, format, reportFromStore(orch.Store(), withSwarm)); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}

// ===== Polygon input =====

func polygonFromFlags(cmd *cobra.Command) ([][2]float64, error) {
	if s, _ := cmd.Flags().GetString("polygon"); strings.TrimSpace(s) != "" {
		return ParsePolygon(s)
	}
	if path, _ := cmd.Flags().GetString("geojson"); path != "" {
		b, err := os.ReadFile(path) //nolint:gosec // path is chosen by the operator
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return ParseGeoJSON(b)
	}
	return nil, errNoPolygon
}

// ParsePolygon reads "lng,lat;lng,lat;..." into a ring.
func ParsePolygon(s string) ([][2]float64, error) {
	var ring [][2]float64
	for i, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		xy := strings.Split(part, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("point %d: want 'lng,lat', got %q", i+1, part)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: bad longitude: %w", i+1, err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: bad latitude: %w", i+1, err)
		}
		ring = append(ring, [2]float64{lng, lat})
	}
	if len(ring) == 0 {
		return nil, errNoPolygon
	}
	return ring, nil
}

// ParseGeoJSON accepts a Polygon geometry or a Feature wrapping one and returns its outer ring.
func ParseGeoJSON(b []byte) ([][2]float64, error) {
	var probe struct {
		Type     string          `json:"type"`
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON: %w", err)
	}
	if probe.Type == "Feature" {
		if len(probe.Geometry) == 0 {
			return nil, errors.New("invalid GeoJSON: feature without geometry")
		}
		b = probe.Geometry
	}
	var g wire.Geometry
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON: %w", err)
	}
	if g.Type != "Polygon" || len(g.Coordinates) == 0 {
		return nil, fmt.Errorf("invalid GeoJSON: want a Polygon, got %q", g.Type)
	}
	return g.Coordinates[0], nil
}
