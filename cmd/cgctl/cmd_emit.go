package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contentgroups/api/internal/app"
)

var emitLoggedIn bool

var emitCmd = &cobra.Command{
	Use:   "emit <document-id>",
	Short: "Print the tracking script a document view would carry",
	Long: `Print the tracking script placed in the head of a document page.

Nothing is printed when the visit would not be tracked, which is the case
for signed-in visitors (--logged-in) unless tracking of logged in users is
turned on.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmit,
}

func init() {
	emitCmd.Flags().BoolVar(&emitLoggedIn, "logged-in", false, "Render as a signed-in visitor")
}

func runEmit(cmd *cobra.Command, args []string) error {
	return withService(cmd.Context(), func(service *app.Service) error {
		page, err := service.RenderPage(cmd.Context(), args[0], true, emitLoggedIn)
		if err != nil {
			return fmt.Errorf("render %s: %w", args[0], err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), page.Head)
		return err
	})
}
