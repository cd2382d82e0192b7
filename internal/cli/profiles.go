package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/NestCut/internal/model"
	"github.com/piwi3910/NestCut/internal/project"
)

func newProfilesCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List and manage G-code controller profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listProfiles(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List built-in and custom profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listProfiles(cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Print the codes a profile emits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := findProfile(args[0])
			if !ok {
				return fmt.Errorf("unknown profile %q", args[0])
			}
			return showProfile(cmd, p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export NAME FILE",
		Short: "Write a profile to a JSON file for sharing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := findProfile(args[0])
			if !ok {
				return fmt.Errorf("unknown profile %q", args[0])
			}
			if err := project.ExportProfile(args[1], p); err != nil {
				return fmt.Errorf("export profile: %w", err)
			}
			loggerFromContext(cmd.Context()).Info("profile exported", "profile", p.Name, "file", args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Add a profile from a JSON file to the custom profiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.ImportProfile(args[0])
			if err != nil {
				return fmt.Errorf("import profile: %w", err)
			}
			return g.updateCustomProfiles(cmd, func(profiles []model.GCodeProfile) ([]model.GCodeProfile, error) {
				if err := model.AddCustomProfile(p); err != nil {
					return nil, err
				}
				loggerFromContext(cmd.Context()).Info("profile imported", "profile", p.Name)
				for i := range profiles {
					if profiles[i].Name == p.Name {
						profiles[i] = p
						return profiles, nil
					}
				}
				return append(profiles, p), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove NAME",
		Short: "Delete a custom profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return g.updateCustomProfiles(cmd, func(profiles []model.GCodeProfile) ([]model.GCodeProfile, error) {
				if err := model.RemoveCustomProfile(name); err != nil {
					return nil, err
				}
				kept := profiles[:0]
				for _, p := range profiles {
					if p.Name != name {
						kept = append(kept, p)
					}
				}
				loggerFromContext(cmd.Context()).Info("profile removed", "profile", name)
				return kept, nil
			})
		},
	})

	return cmd
}

// updateCustomProfiles loads the custom profiles file, applies fn and saves
// the result.
func (g *globalOptions) updateCustomProfiles(cmd *cobra.Command, fn func([]model.GCodeProfile) ([]model.GCodeProfile, error)) error {
	path, err := g.profilesFile()
	if err != nil {
		return err
	}
	profiles, err := project.LoadCustomProfiles(path)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}
	profiles, err = fn(profiles)
	if err != nil {
		return err
	}
	if err := project.SaveCustomProfiles(path, profiles); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	loggerFromContext(cmd.Context()).Debug("profiles saved", "file", path, "count", len(profiles))
	return nil
}

func findProfile(name string) (model.GCodeProfile, bool) {
	for _, p := range model.AllProfiles() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return model.GCodeProfile{}, false
}

func listProfiles(cmd *cobra.Command) error {
	var rows [][]string
	for _, p := range model.AllProfiles() {
		kind := "custom"
		if p.IsBuiltIn {
			kind = "built-in"
		}
		rows = append(rows, []string{p.Name, kind, p.Units, fmt.Sprintf("%d", p.DecimalPlaces), p.Description})
	}
	t := newTable([]string{"Profile", "Kind", "Units", "Decimals", "Description"}, rows, -1)
	_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return err
}

func showProfile(cmd *cobra.Command, p model.GCodeProfile) error {
	rows := [][]string{
		{"Start", strings.Join(p.StartCode, " / ")},
		{"Spindle start", p.SpindleStart},
		{"Spindle stop", p.SpindleStop},
		{"Rapid", p.RapidMove},
		{"Feed", p.FeedMove},
		{"Arc CW", p.ArcCW},
		{"Arc CCW", p.ArcCCW},
		{"End", strings.Join(p.EndCode, " / ")},
		{"Comments", p.CommentPrefix + " text " + p.CommentSuffix},
		{"Decimals", fmt.Sprintf("%d", p.DecimalPlaces)},
	}
	t := newTable([]string{p.Name, ""}, rows, -1)
	_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return err
}
