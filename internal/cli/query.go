package cli

import (
	"github.com/spf13/cobra"

	"cartelera/internal/model"
	"cartelera/internal/query"
)

type queryResult struct {
	Canonical string       `json:"canonical"`
	State     query.State  `json:"state"`
	Redirect  bool         `json:"redirect"`
	Events    []queryEvent `json:"events"`
	Hidden    []string     `json:"hidden"`
}

type queryEvent struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func newQueryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <page> [query]",
		Short: "Show which events a filter query selects",
		Long: `Boots the page headlessly at ?<query>, the same way a browser would,
and prints the canonical query and the visible events as JSON.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := ""
			if len(args) == 2 {
				q = args[1]
			}
			doc, hist, p, err := app.bootAt(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			st := p.Engine.State()
			res := queryResult{
				Canonical: query.Serialize(st),
				State:     st,
				Redirect:  hist.Len() > 1,
				Events:    []queryEvent{},
				Hidden:    []string{},
			}
			shown := make(map[string]bool)
			for _, ev := range p.Engine.Visible() {
				shown[ev.ID] = true
				res.Events = append(res.Events, queryEvent{ID: ev.ID, Title: ev.Title, Tags: append([]string{}, ev.Tags...)})
			}
			for _, el := range doc.QueryAll(model.EventSelector) {
				if !shown[el.ID()] {
					res.Hidden = append(res.Hidden, el.ID())
				}
			}
			return writeJSON(cmd, res)
		},
	}
	return cmd
}
