package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

func newEstimateCmd(g *globalOptions) *cobra.Command {
	var (
		jobPath string
		waste   float64
		price   float64
	)

	cmd := &cobra.Command{
		Use:   "estimate [part files...]",
		Short: "Estimate how many sheets to buy without nesting",
		Long: `Estimate sums the net area of every part (holes removed) and divides it by
the sheet area. The waste factor accounts for the material a real layout
cannot use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeLog, err := g.loadInput(cmd, jobPath, args)
			if err != nil {
				return err
			}
			defer closeLog()

			var area float64
			for _, p := range in.parts {
				area += geometry.NetArea(p)
			}
			s := in.cfg.NestSettings
			if price == 0 {
				price = in.price
			}
			est := model.CalculatePurchaseEstimate(area, s.SheetWidth, s.SheetHeight, waste, price)
			loggerFromContext(cmd.Context()).Debug("estimate", "parts", len(in.parts), "area", area)
			return printEstimate(cmd.OutOrStdout(), len(in.parts), est)
		},
	}

	cmd.Flags().StringVar(&jobPath, "job", "", "job file (.json or .toml) with settings, parts and sources")
	cmd.Flags().Float64Var(&waste, "waste", 15, "waste factor in percent")
	cmd.Flags().Float64Var(&price, "price", 0, "price per sheet (default from --stock), 0 skips the cost")
	addSettingsFlags(cmd.Flags())
	return cmd
}

func printEstimate(w io.Writer, parts int, est model.PurchaseEstimate) error {
	rows := [][]string{
		{"Parts", fmt.Sprintf("%d", parts)},
		{"Net part area", fmt.Sprintf("%.0f mm² (%.2f bd ft)", est.TotalPartArea, est.TotalBoardFeet)},
		{"Sheets (exact)", fmt.Sprintf("%.2f", est.SheetsNeededExact)},
		{"Sheets (minimum)", fmt.Sprintf("%d", est.SheetsNeededMin)},
		{fmt.Sprintf("Sheets (+%.0f%% waste)", est.WastePercent), fmt.Sprintf("%d", est.SheetsWithWaste)},
	}
	if est.PricePerSheet > 0 {
		rows = append(rows, []string{"Cost", fmt.Sprintf("%.2f", est.EstimatedCost)})
	}
	t := newTable([]string{"Estimate", ""}, rows, -1)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
