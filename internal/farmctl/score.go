package farmctl

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/farmai/internal/analysis"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score crops for a site without calling the API",
		Long: `Score runs the crop suitability scorer and the economic model locally on
the soil and climate given as flags. With --lat and no --zone the coarse
latitude climate is used.

Examples:
  farmctl score --ph 6.5 --om 3 --drainage "Well drained" --zone 7a --growing-days 200
  farmctl score --ph 5.8 --lat 44.9 --acres 25 -f markdown`,
		Args: cobra.NoArgs,
		RunE: runScoreCmd,
	}
	cmd.Flags().String("soil", "Site soil", "soil map unit name")
	cmd.Flags().Float64("ph", 6.5, "soil pH")
	cmd.Flags().Float64("om", 2.5, "organic matter percent")
	cmd.Flags().String("drainage", "Well drained", "drainage class")
	cmd.Flags().String("zone", "", "USDA hardiness zone, e.g. 7a")
	cmd.Flags().Int("growing-days", 180, "frost-free growing days")
	cmd.Flags().Float64("lat", 0, "latitude for the fallback climate when --zone is empty")
	cmd.Flags().Float64P("acres", "a", 10, "parcel area for the economic scenarios")
	cmd.Flags().String("crops", "", "YAML crop table replacing the built-in one")
	cmd.Flags().IntP("top", "n", 0, "print only the best n crops (0 prints all)")
	addFormatFlags(cmd)
	return cmd
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	crops := analysis.DefaultCrops()
	if path, _ := cmd.Flags().GetString("crops"); path != "" {
		if crops, err = analysis.LoadCrops(path); err != nil {
			return err
		}
	}
	soil := soilFlags(cmd)
	climate, err := climateFlags(cmd)
	if err != nil {
		return err
	}
	acres, _ := cmd.Flags().GetFloat64("acres")
	top, _ := cmd.Flags().GetInt("top")

	scores := analysis.NewScorer(crops).Score(soil, climate)
	scenarios := analysis.GenerateScenarios(scores, acres)
	if top > 0 && top < len(scores) {
		scores = scores[:top]
	}

	r := Report{
		Property: entities.Property{Acreage: acres},
		Analysis: entities.Analysis{
			ID:            "local",
			Soil:          &soil,
			Climate:       &climate,
			CropMatrix:    scores,
			Economics:     scenarios,
			WeatherAlerts: []string{},
		},
		Generated: time.Now().UTC(),
	}
	w, closeOut, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	if err := WriteReport(w, format, r); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}

func soilFlags(cmd *cobra.Command) entities.Soil {
	name, _ := cmd.Flags().GetString("soil")
	ph, _ := cmd.Flags().GetFloat64("ph")
	om, _ := cmd.Flags().GetFloat64("om")
	drainage, _ := cmd.Flags().GetString("drainage")
	return entities.Soil{
		Name: name, PH: ph, OrganicMatter: om, Drainage: drainage,
		Sand: 40, Silt: 35, Clay: 25, AWC: 0.18,
	}
}

func climateFlags(cmd *cobra.Command) (entities.Climate, error) {
	zone, _ := cmd.Flags().GetString("zone")
	days, _ := cmd.Flags().GetInt("growing-days")
	if zone == "" {
		lat, _ := cmd.Flags().GetFloat64("lat")
		c := analysis.FallbackClimate(lat)
		if cmd.Flags().Changed("growing-days") {
			c.GrowingDays = days
		}
		return c, nil
	}
	if analysis.ZoneIndex(zone) < 0 {
		return entities.Climate{}, fmt.Errorf("unknown hardiness zone %q", zone)
	}
	return entities.Climate{HardinessZone: zone, GrowingDays: days}, nil
}
