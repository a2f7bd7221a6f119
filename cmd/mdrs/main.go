// Command mdrs flattens source trees into markdown and runs an interactive
// coding agent over a local workspace.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle(os.Stderr).Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mdrs",
		Short:         "Markdown flattener and tool-using coding agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMdCommand(), newCodeCommand())
	return root
}
