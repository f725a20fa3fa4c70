package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/lambda"
)

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load nodes into the SQLite store",
		Long:  "Reads a YAML or JSON list of {type, data} nodes and inserts them into the SQLite store at --db in one transaction.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			nodes, err := readNodes(args[0])
			if err != nil {
				return a.outputError(out, errOut, "import", err)
			}
			e, err := lambda.New(lambda.WithSQLite(a.cfg.DB), lambda.WithLogger(a.logger))
			if err != nil {
				return a.outputError(out, errOut, "import", fmt.Errorf("opening store: %w", err))
			}
			defer e.Close()

			if err := e.Store().InsertNodes(cmd.Context(), nodes); err != nil {
				return a.outputError(out, errOut, "import", err)
			}
			a.logger.Info("nodes imported", "file", args[0], "nodes", len(nodes), "db", a.cfg.DB)
			return a.outputResult(out, CLIResult{
				Command: "import",
				Results: CLIImport{File: args[0], Nodes: len(nodes)},
			})
		},
	}
}
