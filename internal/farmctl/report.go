package farmctl

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/LeonardoBeccarini/farmai/internal/agents"
	"github.com/LeonardoBeccarini/farmai/internal/analysis"
	"github.com/LeonardoBeccarini/farmai/internal/client"
	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

// Report is everything farmctl knows about one parcel after a run.
type Report struct {
	Property  entities.Property  `json:"property"`
	Analysis  entities.Analysis  `json:"analysis"`
	Swarm     *client.SwarmState `json:"swarm,omitempty"`
	Generated time.Time          `json:"generated"`
}

// reportFromStore snapshots the client store.
func reportFromStore(s *client.Store, withSwarm bool) Report {
	r := Report{Property: s.Property(), Analysis: s.Analysis(), Generated: time.Now().UTC()}
	if withSwarm {
		sw := s.Swarm()
		r.Swarm = &sw
	}
	return r
}

// WriteReport renders r in the requested format.
func WriteReport(w io.Writer, format string, r Report) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatMarkdown:
		return WriteMarkdown(w, r)
	default:
		return WriteText(w, r)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ===== Markdown =====

// WriteMarkdown writes the parcel report as GitHub-flavoured markdown.
func WriteMarkdown(w io.Writer, r Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("Parcel Analysis Report")
	md.PlainText("")
	writeParcelTable(md, r)
	writeSoilSection(md, r.Analysis.Soil)
	writeClimateSection(md, r.Analysis.Climate)
	writeAlerts(md, r.Analysis.WeatherAlerts)
	writeCropSection(md, r.Analysis.CropMatrix)
	writeEconomicsSection(md, r.Analysis.Economics)
	if r.Swarm != nil {
		writeSwarmSection(md, *r.Swarm)
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by farmctl on %s*", r.Generated.Format("2006-01-02 15:04 MST"))
	return md.Build()
}

func writeParcelTable(md *markdown.Markdown, r Report) {
	rows := [][]string{
		{"Analysis ID", "`" + r.Analysis.ID + "`"},
		{"Area", fmt.Sprintf("%.2f acres", r.Property.Acreage)},
	}
	if c := r.Property.Centroid; c != nil {
		rows = append(rows, []string{"Centroid", fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lng)})
	}
	if e := r.Analysis.Elevation; e != nil {
		rows = append(rows, []string{"Elevation", fmt.Sprintf("%.0f m", *e)})
	}
	if n := r.Analysis.NDVI; n != nil {
		rows = append(rows, []string{"NDVI", fmt.Sprintf("%.2f (%s)", *n, analysis.NDVILabel(*n))})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

func writeSoilSection(md *markdown.Markdown, soil *entities.Soil) {
	md.H2("Soil")
	md.PlainText("")
	if soil == nil {
		md.Note("Soil data unavailable.")
		md.PlainText("")
		return
	}
	md.Table(markdown.TableSet{
		Header: []string{"Attribute", "Value"},
		Rows: [][]string{
			{"Map unit", soil.Name},
			{"pH", strconv.FormatFloat(soil.PH, 'f', 1, 64)},
			{"Organic matter", fmt.Sprintf("%.1f%%", soil.OrganicMatter)},
			{"Drainage", soil.Drainage},
			{"Texture", fmt.Sprintf("sand %.0f%% / silt %.0f%% / clay %.0f%%", soil.Sand, soil.Silt, soil.Clay)},
			{"Health score", strconv.Itoa(analysis.SoilHealthScore(*soil))},
		},
	})
	md.PlainText("")
	if soil.Description != "" {
		md.Details("Taxonomy", soil.Description)
		md.PlainText("")
	}
}

func writeClimateSection(md *markdown.Markdown, c *entities.Climate) {
	md.H2("Climate")
	md.PlainText("")
	if c == nil {
		md.Note("Historical weather unavailable; climate not derived.")
		md.PlainText("")
		return
	}
	md.Table(markdown.TableSet{
		Header: []string{"Hardiness zone", "Growing days", "Avg temp", "Annual precip", "Last frost", "First frost"},
		Rows: [][]string{{
			c.HardinessZone,
			strconv.Itoa(c.GrowingDays),
			fmt.Sprintf("%.1f °C", c.AvgAnnualTemp),
			fmt.Sprintf("%.0f mm", c.AnnualPrecip),
			c.LastFrost,
			c.FirstFrost,
		}},
	})
	md.PlainText("")
}

func writeAlerts(md *markdown.Markdown, alerts []string) {
	if len(alerts) == 0 {
		return
	}
	md.Warningf("%d active weather alert(s) for this parcel.", len(alerts))
	md.PlainText("")
	md.BulletList(alerts...)
	md.PlainText("")
}

func writeCropSection(md *markdown.Markdown, crops []entities.CropScore) {
	md.H2("Crop Compatibility")
	md.PlainText("")
	if len(crops) == 0 {
		md.PlainText("No crops scored.")
		md.PlainText("")
		return
	}
	rows := make([][]string, 0, len(crops))
	for _, c := range crops {
		rows = append(rows, []string{
			c.Name,
			strconv.Itoa(c.Score),
			strconv.Itoa(c.SoilMatch) + "%",
			strconv.Itoa(c.ClimateMatch) + "%",
			c.WaterNeed,
			"$" + strconv.Itoa(c.ProjectedRevenue),
			truncate(c.Reason, 60),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Crop", "Score", "Soil", "Climate", "Water", "Revenue/acre", "Why"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeEconomicsSection(md *markdown.Markdown, scenarios []entities.EconomicScenario) {
	md.H2("Economic Scenarios")
	md.PlainText("")
	if len(scenarios) == 0 {
		md.PlainText("No scenarios available.")
		md.PlainText("")
		return
	}
	for _, sc := range scenarios {
		md.H3(sc.Name)
		md.PlainText("")
		if sc.Description != "" {
			md.PlainText(sc.Description)
			md.PlainText("")
		}
		md.Table(markdown.TableSet{
			Header: []string{"Total revenue", "ROI", "Break-even", "Labor reduction"},
			Rows: [][]string{{
				"$" + strconv.Itoa(sc.TotalRevenue),
				strconv.Itoa(sc.ROI) + "%",
				strconv.Itoa(sc.BreakEvenMonths) + " months",
				strconv.Itoa(sc.LaborReduction) + "%",
			}},
		})
		md.PlainText("")
		if chart := revenueChart(sc); chart != "" {
			md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart)
			md.PlainText("")
		}
	}
}

// revenueChart is a mermaid pie of the scenario revenue by crop; empty when nothing earns.
func revenueChart(sc entities.EconomicScenario) string {
	chart := piechart.NewPieChart(io.Discard, piechart.WithTitle(sc.Name+" revenue by crop"), piechart.WithShowData(true))
	n := 0
	for _, c := range sc.Crops {
		if c.Revenue <= 0 {
			continue
		}
		chart.LabelAndIntValue(c.Name, uint64(c.Revenue))
		n++
	}
	if n == 0 {
		return ""
	}
	return chart.String()
}

func writeSwarmSection(md *markdown.Markdown, sw client.SwarmState) {
	md.H2("Agent Swarm")
	md.PlainText("")
	if sw.Error != "" {
		md.Cautionf("%s", sw.Error)
		md.PlainText("")
		return
	}
	if sw.Remediation != nil {
		md.H3("Soil Remediation")
		md.PlainText("")
		md.PlainTextf("Apply **%.1f tons** of %s.", sw.Remediation.AmendmentPlan.EstimatedTons, sw.Remediation.AmendmentPlan.FertilizerType)
		md.PlainText("")
		md.BulletList(sw.Remediation.StatusLog...)
		md.PlainText("")
	}
	if sw.Procurement != nil {
		md.H3("Procurement")
		md.PlainText("")
		rows := make([][]string, 0, len(sw.Procurement.BillOfMaterials))
		for _, it := range sw.Procurement.BillOfMaterials {
			rows = append(rows, []string{it.Name, it.Quantity, agents.FormatUSD(it.EstimatedCost)})
		}
		rows = append(rows, []string{"**Total**", "", "**" + agents.FormatUSD(sw.Procurement.TotalCost) + "**"})
		md.Table(markdown.TableSet{Header: []string{"Item", "Quantity", "Cost"}, Rows: rows})
		md.PlainText("")
	}
	if sw.Finance != nil {
		md.H3("Grant Application")
		md.PlainText("")
		md.PlainTextf("Program: **%s**", sw.Finance.GrantName)
		md.PlainText("")
		md.Details("Drafted application", sw.Finance.DraftedApplication)
		md.PlainText("")
	}
	if sw.Status == entities.SwarmComplete {
		md.Tip("All three agents completed.")
		md.PlainText("")
	}
}

// ===== Text =====

// WriteText writes a compact terminal summary.
func WriteText(w io.Writer, r Report) error {
	a := r.Analysis
	fmt.Fprintf(w, "Analysis %s  (%.2f acres)\n", a.ID, r.Property.Acreage)
	if s := a.Soil; s != nil {
		fmt.Fprintf(w, "Soil:    %s, pH %.1f, OM %.1f%%, %s\n", s.Name, s.PH, s.OrganicMatter, s.Drainage)
	}
	if c := a.Climate; c != nil {
		fmt.Fprintf(w, "Climate: zone %s, %d growing days, frost %s to %s\n", c.HardinessZone, c.GrowingDays, c.LastFrost, c.FirstFrost)
	}
	if n := a.NDVI; n != nil {
		fmt.Fprintf(w, "NDVI:    %.2f (%s)\n", *n, analysis.NDVILabel(*n))
	}
	for _, al := range a.WeatherAlerts {
		fmt.Fprintf(w, "ALERT:   %s\n", al)
	}

	if len(a.CropMatrix) > 0 {
		fmt.Fprintln(w)
		if err := cropTable(w, a.CropMatrix); err != nil {
			return err
		}
	}
	if len(a.Economics) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCENARIO\tREVENUE\tROI\tBREAK-EVEN\tCROPS")
		for _, sc := range a.Economics {
			names := make([]string, 0, len(sc.Crops))
			for _, c := range sc.Crops {
				names = append(names, c.Name)
			}
			fmt.Fprintf(tw, "%s\t$%d\t%d%%\t%d mo\t%s\n", sc.Name, sc.TotalRevenue, sc.ROI, sc.BreakEvenMonths, strings.Join(names, ", "))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if r.Swarm != nil {
		fmt.Fprintln(w)
		writeSwarmText(w, *r.Swarm)
	}
	return nil
}

func cropTable(w io.Writer, crops []entities.CropScore) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CROP\tSCORE\tSOIL\tCLIMATE\tWATER\tREVENUE/AC")
	for _, c := range crops {
		fmt.Fprintf(tw, "%s\t%d\t%d%%\t%d%%\t%s\t$%d\n", c.Name, c.Score, c.SoilMatch, c.ClimateMatch, c.WaterNeed, c.ProjectedRevenue)
	}
	return tw.Flush()
}

func writeSwarmText(w io.Writer, sw client.SwarmState) {
	if sw.Error != "" {
		fmt.Fprintf(w, "Swarm failed: %s\n", sw.Error)
		return
	}
	fmt.Fprintf(w, "Swarm: %s\n", sw.Status)
	if r := sw.Remediation; r != nil {
		fmt.Fprintf(w, "  [1] remediation: %.1f tons %s\n", r.AmendmentPlan.EstimatedTons, r.AmendmentPlan.FertilizerType)
	}
	if p := sw.Procurement; p != nil {
		fmt.Fprintf(w, "  [2] procurement: %d items, total %s\n", len(p.BillOfMaterials), agents.FormatUSD(p.TotalCost))
	}
	if f := sw.Finance; f != nil {
		fmt.Fprintf(w, "  [3] finance: %s\n", f.GrantName)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
