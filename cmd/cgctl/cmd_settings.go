package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"contentgroups/api/internal/app"
	"contentgroups/api/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the analytics settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting with its current value",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set one setting",
	Long: `Set one setting by its field name, for example:

  cgctl settings set jp_analytics_settings_ga_tracking_id UA-12345678-1

List fields take one option per line; "\n" in the value is read as a line
break. Checkbox fields accept 1/0, true/false or on/off.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	return withService(cmd.Context(), func(service *app.Service) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, section := range service.SettingsForm(cmd.Context()) {
			fmt.Fprintf(w, "# %s\n", section.Title)
			for _, value := range section.Values {
				shown := value.Value
				if value.Kind == settings.KindCheckbox {
					shown = fmt.Sprintf("%t", value.Checked)
				}
				fmt.Fprintf(w, "%s\t%s\n", value.Name, strings.ReplaceAll(shown, "\n", ", "))
			}
		}
		return w.Flush()
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	name, value := args[0], args[1]
	field, ok := settings.LookupField(name)
	if !ok {
		return fmt.Errorf("unknown setting %q", name)
	}
	switch field.Kind {
	case settings.KindCheckbox:
		on, err := parseSwitch(value)
		if err != nil {
			return err
		}
		value = settings.FromBool(on)
	case settings.KindTextarea:
		value = strings.ReplaceAll(value, `\n`, "\n")
	}

	return withService(cmd.Context(), func(service *app.Service) error {
		if err := service.Settings().Set(cmd.Context(), name, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", name)
		return nil
	})
}

func parseSwitch(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true, nil
	case "0", "false", "off", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", raw)
}
