package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	"github.com/kailas-cloud/chunkdex/internal/usecase/readiness"
)

// statusOutput is the --json form of the status command.
type statusOutput struct {
	Collection string        `json:"collection"`
	Converged  bool          `json:"converged"`
	Indexes    []indexStatus `json:"indexes"`
}

type indexStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Queryable bool   `json:"queryable"`
}

func newStatusOutput(collection string, converged bool, statuses []index.Status) statusOutput {
	out := statusOutput{Collection: collection, Converged: converged, Indexes: make([]indexStatus, len(statuses))}
	for i, s := range statuses {
		out.Indexes[i] = indexStatus{Name: s.Name, Status: string(s.Status), Queryable: s.Queryable}
	}
	return out
}

func newStatusCmd(g *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current search index statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load()
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close(context.Background()) }()

			collection := a.cfg.Database.Collection
			statuses, converged, err := readiness.New(store).
				Check(cmd.Context(), collection, index.Names(a.cfg.IndexSpecifications())...)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(newStatusOutput(collection, converged, statuses))
			}

			printStatuses(cmd.OutOrStdout(), statuses)
			if converged {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "ready")
			} else {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "not ready")
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
