package main

import (
	"github.com/spf13/cobra"
)

func (a *app) resolveCmd() *cobra.Command {
	var flagScript, flagEvent string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Dispatch one event to a script's resolver",
		Long:  "Loads the script, dispatches the event read from --event (YAML or JSON) and prints one value per parent, or null when the script has nothing to resolve.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			ev, err := readEvent(flagEvent)
			if err != nil {
				return a.outputError(out, errOut, "resolve", err)
			}
			e, s, err := a.loadScript(cmd.Context(), flagScript)
			if err != nil {
				return a.outputError(out, errOut, "resolve", err)
			}
			defer e.Close()

			values, ok, err := s.Resolve(cmd.Context(), ev)
			if err != nil {
				return a.outputError(out, errOut, "resolve", err)
			}
			result := CLIResult{Command: "resolve"}
			if ok {
				result.Results = values
			}
			return a.outputResult(out, result)
		},
	}
	cmd.Flags().StringVar(&flagScript, "script", "", "resolver script path")
	cmd.Flags().StringVar(&flagEvent, "event", "", "event file path (YAML or JSON)")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func (a *app) resolversCmd() *cobra.Command {
	var flagScript string
	cmd := &cobra.Command{
		Use:   "resolvers",
		Short: "List the event types a script registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			e, s, err := a.loadScript(cmd.Context(), flagScript)
			if err != nil {
				return a.outputError(out, errOut, "resolvers", err)
			}
			defer e.Close()
			return a.outputResult(out, CLIResult{Command: "resolvers", Results: s.Resolvers()})
		},
	}
	cmd.Flags().StringVar(&flagScript, "script", "", "resolver script path")
	return cmd
}
