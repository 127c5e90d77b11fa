// File: cmd/actions.go
package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/browsepilot/api/schemas"
	"github.com/xkilldash9x/browsepilot/internal/actions"
)

// newActionsCmd creates the `actions` command, which lists the tool
// declarations advertised to the model.
func newActionsCmd() *cobra.Command {
	var format string

	actionsCmd := &cobra.Command{
		Use:   "actions",
		Short: "Lists the browser actions available to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			registry, err := actions.NewStandardRegistry(cfg.Action)
			if err != nil {
				return fmt.Errorf("failed to build action registry: %w", err)
			}

			switch format {
			case "text":
				return writeActionsText(cmd.OutOrStdout(), registry.Declarations())
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(registry.Declarations())
			default:
				return fmt.Errorf("unsupported format %q (want text or yaml)", format)
			}
		},
	}

	actionsCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or yaml.")
	return actionsCmd
}

// writeActionsText prints one line per action, e.g. "write(css_selector*, text*): ...".
// Required parameters carry a trailing asterisk.
func writeActionsText(w io.Writer, decls []schemas.ActionDescriptor) error {
	for _, d := range decls {
		names := make([]string, 0, len(d.Parameters))
		for name := range d.Parameters {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if d.Parameters[name].Required {
				names[i] = name + "*"
			}
		}
		if _, err := fmt.Fprintf(w, "%s(%s): %s\n", d.Name, strings.Join(names, ", "), d.Description); err != nil {
			return err
		}
	}
	return nil
}
