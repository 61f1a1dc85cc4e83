package cli

import (
	"github.com/spf13/cobra"

	"cartelera/internal/form"
	"cartelera/internal/site"
	"cartelera/internal/stale"
)

func newPruneCmd(app *App) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "prune <page>",
		Short: "Remove past events and sessions from a page and reorder it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clock, err := app.clock()
			if err != nil {
				return err
			}
			doc, err := app.loadPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ids := app.cfg.FilterControls()
			f := form.Resolve(doc, ids.Ini)
			rep := stale.New(doc, f, stale.Controls{Ini: ids.Ini, Total: ids.Total}, clock).Run()

			body, err := doc.Bytes()
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := site.WriteAtomic(out, body); err != nil {
				return err
			}
			return writeJSON(cmd, rep)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the pruned page here instead of stdout (prints the report)")
	return cmd
}
