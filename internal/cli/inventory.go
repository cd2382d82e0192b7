package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/NestCut/internal/model"
	"github.com/piwi3910/NestCut/internal/project"
)

func newInventoryCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "List and share tool and sheet presets",
		Long: `Inventory lists the tool and sheet presets that --tool and --stock select.
Without an inventory file the built-in presets are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, _, err := g.loadInventory()
			if err != nil {
				return err
			}
			return listInventory(cmd, inv)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export FILE",
		Short: "Write the inventory to a JSON file for sharing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, _, err := g.loadInventory()
			if err != nil {
				return err
			}
			if err := project.SaveInventory(args[0], inv); err != nil {
				return fmt.Errorf("export inventory: %w", err)
			}
			loggerFromContext(cmd.Context()).Info("inventory exported", "file", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Merge presets from a JSON file into the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, path, err := g.loadInventory()
			if err != nil {
				return err
			}
			inv, added, err := project.ImportInventory(args[0], inv)
			if err != nil {
				return fmt.Errorf("import inventory: %w", err)
			}
			if err := project.SaveInventory(path, inv); err != nil {
				return fmt.Errorf("save inventory: %w", err)
			}
			loggerFromContext(cmd.Context()).Info("inventory imported", "file", args[0], "added", added)
			return nil
		},
	})

	return cmd
}

func (g *globalOptions) loadInventory() (model.Inventory, string, error) {
	path, err := g.inventoryFile()
	if err != nil {
		return model.Inventory{}, "", err
	}
	inv, err := project.LoadInventory(path)
	if err != nil {
		return model.Inventory{}, "", fmt.Errorf("load inventory: %w", err)
	}
	return inv, path, nil
}

func listInventory(cmd *cobra.Command, inv model.Inventory) error {
	tools := make([][]string, 0, len(inv.Tools))
	for _, t := range inv.Tools {
		tools = append(tools, []string{
			t.Name,
			fmt.Sprintf("%.3g", t.ToolDiameter),
			fmt.Sprintf("%.0f / %.0f", t.FeedRate, t.PlungeRate),
			fmt.Sprintf("%d", t.SpindleSpeed),
			fmt.Sprintf("%.3g / %.3g", t.CutDepth, t.PassDepth),
		})
	}
	sheets := make([][]string, 0, len(inv.Sheets))
	for _, s := range inv.Sheets {
		price := "-"
		if s.PricePerSheet > 0 {
			price = fmt.Sprintf("%.2f", s.PricePerSheet)
		}
		sheets = append(sheets, []string{s.Name, fmt.Sprintf("%.0f x %.0f", s.Width, s.Height), s.Material, price})
	}

	w := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(w, newTable([]string{"Tool", "Diameter", "Feed / Plunge", "Spindle", "Depth / Pass"}, tools, -1).Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, newTable([]string{"Sheet", "Size", "Material", "Price"}, sheets, -1).Render())
	return err
}
