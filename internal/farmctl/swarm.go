package farmctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/farmai/internal/client"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// NewSwarmCmd creates the swarm command.
func NewSwarmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swarm",
		Short: "Run the remediation, procurement and finance agents",
		Long: `Swarm runs the three agents strictly in order. Each agent starts only after
the previous one succeeded; the first failure stops the chain.

The soil comes from a stored analysis (--id) or from the soil flags.

Examples:
  farmctl swarm --id 4f1c2d9e-...
  farmctl swarm --soil "Clarion loam" --ph 5.6 --om 2.1 --drainage "Poorly drained" --acres 40`,
		Args: cobra.NoArgs,
		RunE: runSwarmCmd,
	}
	cmd.Flags().String("id", "", "stored analysis to take the soil and acreage from")
	cmd.Flags().String("soil", "Unknown soil", "soil map unit name")
	cmd.Flags().Float64("ph", 6.5, "soil pH")
	cmd.Flags().Float64("om", 2.5, "organic matter percent")
	cmd.Flags().String("drainage", "Well drained", "drainage class")
	cmd.Flags().Float64P("acres", "a", client.DefaultSwarmAcres, "parcel area in acres")
	addFormatFlags(cmd)
	return cmd
}

func runSwarmCmd(cmd *cobra.Command, _ []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	api := apiClient(cmd)
	store := client.NewStore()
	orch := client.NewOrchestrator(api, store)

	var runErr error
	if id, _ := cmd.Flags().GetString("id"); id != "" {
		resp, err := api.Analysis(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load analysis %s: %w", id, err)
		}
		store.SetProperty(entities.Property{Acreage: resp.AreaAcres, Centroid: &resp.Centroid})
		store.SetAnalysis(client.MapBackendToAnalysis(resp, resp.AreaAcres, id))
		runErr = orch.RunForAnalysis(ctx)
	} else {
		acres, _ := cmd.Flags().GetFloat64("acres")
		store.SetProperty(entities.Property{Acreage: acres})
		runErr = orch.Run(ctx, soilFromFlags(cmd), acres)
	}

	w, closeOut, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	sw := store.Swarm()
	switch format {
	case FormatJSON:
		err = writeJSON(w, sw)
	case FormatMarkdown:
		err = WriteMarkdown(w, reportFromStore(store, true))
	default:
		writeSwarmText(w, sw)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return runErr
}

func soilFromFlags(cmd *cobra.Command) client.SwarmSoilInput {
	name, _ := cmd.Flags().GetString("soil")
	ph, _ := cmd.Flags().GetFloat64("ph")
	om, _ := cmd.Flags().GetFloat64("om")
	drainage, _ := cmd.Flags().GetString("drainage")
	return client.SwarmInputFromSoil(entities.Soil{Name: name, PH: ph, OrganicMatter: om, Drainage: drainage})
}
