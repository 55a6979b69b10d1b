package farmctl

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntP("limit", "l", 20, "maximum number of analyses")
	addFormatFlags(cmd)
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list, err := apiClient(cmd).Analyses(ctx, limit)
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
		return writeJSON(w, list)
	case FormatMarkdown:
		rows := make([][]string, 0, len(list))
		for _, s := range list {
			rows = append(rows, []string{
				"`" + s.ID + "`",
				s.CreatedAt.Format("2006-01-02 15:04"),
				fmt.Sprintf("%.4f, %.4f", s.Lat, s.Lng),
				fmt.Sprintf("%.2f", s.AreaAcres),
				s.SoilName,
				s.TopCrop + " (" + strconv.Itoa(s.TopScore) + ")",
			})
		}
		md := markdown.NewMarkdown(w)
		md.H2("Analysis History")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: []string{"ID", "When", "Location", "Acres", "Soil", "Top crop"}, Rows: rows})
		return md.Build()
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "no analyses stored")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tLAT\tLNG\tACRES\tSOIL\tTOP CROP")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.2f\t%s\t%s (%d)\n",
			s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Lat, s.Lng, s.AreaAcres, s.SoilName, s.TopCrop, s.TopScore)
	}
	return tw.Flush()
}
