package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/tiles/internal/usecase/registry"
)

// TypesCmd returns the types command listing configured tile types.
func TypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List configured tile types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			types, err := registry.FromConfig(cfg.Tiles)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if types.Count() == 0 {
				fmt.Fprintln(out, "No tile types configured")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTORAGE\tFLAGS\tFIELDS")
			for _, t := range types.List() {
				storage := color.New(color.FgGreen).Sprint("transient")
				if t.Persistent {
					storage = color.New(color.FgYellow).Sprint("persistent")
				}
				var flags []string
				if t.ESI {
					flags = append(flags, "esi")
				}
				if t.Head {
					flags = append(flags, "head")
				}
				var fields []string
				if t.Schema != nil {
					for _, f := range t.Schema.Fields() {
						name := f.Name()
						if f.Primary() {
							name += "*"
						}
						fields = append(fields, name+":"+f.Kind().String())
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					color.New(color.FgCyan).Sprint(t.Name), storage,
					dash(strings.Join(flags, ",")), dash(strings.Join(fields, " ")))
			}
			return w.Flush()
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
