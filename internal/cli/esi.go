package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/tiles/internal/esi"
)

// ESICmd returns the esi command group. Each subcommand filters stdin to stdout.
func ESICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "esi",
		Short: "Edge side include helpers",
	}
	cmd.AddCommand(esiFilterCmd("substitute", "Replace ESI placeholder links with esi:include tags", esi.SubstituteLinks))
	cmd.AddCommand(esiFilterCmd("head", "Print the children of <head>", esi.Head))
	cmd.AddCommand(esiFilterCmd("body", "Print the children of <body>", esi.Body))
	return cmd
}

func esiFilterCmd(use, short string, filter func(string) string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), filter(string(in)))
			return err
		},
	}
}
