package farmctl

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/farmai/internal/sources"
)

// ===== geocode =====

// NewGeocodeCmd creates the geocode command.
func NewGeocodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geocode <address>",
		Short: "Search US addresses",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runGeocodeCmd,
	}
	addFormatFlags(cmd)
	return cmd
}

func runGeocodeCmd(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	q := strings.TrimSpace(strings.Join(args, " "))
	if len(q) < sources.MinQueryLen {
		return fmt.Errorf("query must be at least %d characters", sources.MinQueryLen)
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	results, err := apiClient(cmd).Geocode(ctx, q)
	if err != nil {
		return err
	}
	w, closeOut, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	switch format {
	case FormatJSON:
		return writeJSON(w, results)
	case FormatMarkdown:
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{r.DisplayName, fmt.Sprintf("%.5f", r.Lat), fmt.Sprintf("%.5f", r.Lng)})
		}
		md := markdown.NewMarkdown(w)
		md.Table(markdown.TableSet{Header: []string{"Address", "Lat", "Lng"}, Rows: rows})
		return md.Build()
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "no matches")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAT\tLNG\tADDRESS")
	for _, r := range results {
		fmt.Fprintf(tw, "%.5f\t%.5f\t%s\n", r.Lat, r.Lng, r.DisplayName)
	}
	return tw.Flush()
}

// ===== plan =====

// NewPlanCmd creates the plan command.
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <analysis-id>",
		Short: "Print the daily farm plan of a stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlanCmd,
	}
	cmd.Flags().StringP("date", "d", "", "plan date as YYYY-MM-DD (default today)")
	addFormatFlags(cmd)
	return cmd
}

func runPlanCmd(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	var day time.Time
	if s, _ := cmd.Flags().GetString("date"); s != "" {
		if day, err = time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
		}
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	plan, err := apiClient(cmd).DailyPlan(ctx, args[0], day)
	if err != nil {
		return err
	}
	w, closeOut, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	switch format {
	case FormatJSON:
		return writeJSON(w, plan)
	case FormatMarkdown:
		md := markdown.NewMarkdown(w)
		md.H1(fmt.Sprintf("Daily Plan %s", plan.Date))
		md.PlainText("")
		md.PlainTextf("Season: **%s**, zone %s. %s", plan.Season, plan.Zone, plan.PHNote)
		md.PlainText("")
		rows := make([][]string, 0, len(plan.Tasks))
		for _, t := range plan.Tasks {
			rows = append(rows, []string{t.TimeRange, t.Title, t.Priority, t.Detail})
		}
		md.Table(markdown.TableSet{Header: []string{"Time", "Task", "Priority", "Detail"}, Rows: rows})
		return md.Build()
	}
	fmt.Fprintf(w, "%s  %s, zone %s\n%s\n\n", plan.Date, plan.Season, plan.Zone, plan.PHNote)
	for _, t := range plan.Tasks {
		fmt.Fprintf(w, "%-13s %s [%s]\n              %s\n", t.TimeRange, t.Title, t.Priority, t.Detail)
	}
	return nil
}

// ===== recommend =====

// NewRecommendCmd creates the recommend command.
func NewRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "List nearby parcels worth a look",
		Args:  cobra.NoArgs,
		RunE:  runRecommendCmd,
	}
	cmd.Flags().Float64("lat", 0, "latitude")
	cmd.Flags().Float64("lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	addFormatFlags(cmd)
	return cmd
}

func runRecommendCmd(cmd *cobra.Command, _ []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	ctx, cancel := commandContext(cmd)
	defer cancel()

	fc, err := apiClient(cmd).Recommendations(ctx, lat, lng)
	if err != nil {
		return err
	}
	w, closeOut, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	if format == FormatJSON {
		return writeJSON(w, fc)
	}
	rows := make([][]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		p := f.Properties
		rows = append(rows, []string{
			p.Name,
			fmt.Sprintf("%.1f", p.Acreage),
			fmt.Sprintf("%d", p.ProjectedYield),
			fmt.Sprintf("%d", p.SoilMatchScore),
			fmt.Sprintf("%.1f mi", p.DistanceMiles),
		})
	}
	header := []string{"Parcel", "Acres", "Yield", "Soil match", "Distance"}
	if format == FormatMarkdown {
		md := markdown.NewMarkdown(w)
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		return md.Build()
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}
