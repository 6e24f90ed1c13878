package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand adds a `version` subcommand to root and sets the
// root's --version output to the same string.
func AttachCobraVersionCommand(root *cobra.Command) {
	root.Version = Full()
	root.SetVersionTemplate(fmt.Sprintf("%s %s\n", root.Name(), Full()))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", root.Name(), Full())
		},
	})
}
