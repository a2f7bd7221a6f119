package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FarhanAliRaza/Mardown-rs/flatten"
	"github.com/FarhanAliRaza/Mardown-rs/workspace"
)

const defaultOutput = "output.md"

type mdOptions struct {
	input      string
	output     string
	extensions []string
	exclude    []string
}

func newMdCommand() *cobra.Command {
	var opts mdOptions
	cmd := &cobra.Command{
		Use:   "md",
		Short: "Generate a Markdown file from code files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generating Markdown from '%s' to '%s'...\n", opts.input, opts.output)
			sum, err := runMd(cmd, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Markdown generation complete: %d files written, %d skipped.\n", sum.Files, sum.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", ".", "directory to flatten")
	cmd.Flags().StringVarP(&opts.output, "output", "o", defaultOutput, "markdown file to write")
	cmd.Flags().StringSliceVarP(&opts.extensions, "extensions", "e", nil, "file extensions to include, e.g. go,rs (default all)")
	cmd.Flags().StringArrayVarP(&opts.exclude, "exclude", "x", nil, "glob pattern to exclude, repeatable")
	return cmd
}

func runMd(cmd *cobra.Command, opts mdOptions) (flatten.Summary, error) {
	root, err := filepath.Abs(opts.input)
	if err != nil {
		return flatten.Summary{}, err
	}
	output, err := filepath.Abs(opts.output)
	if err != nil {
		return flatten.Summary{}, err
	}

	// Never feed a previous run's output back into the document.
	exclude := append([]string(nil), opts.exclude...)
	if rel, err := filepath.Rel(root, output); err == nil && !strings.HasPrefix(rel, "..") {
		exclude = append(exclude, filepath.ToSlash(rel))
	}

	f, err := os.Create(output)
	if err != nil {
		return flatten.Summary{}, fmt.Errorf("create %s: %w", opts.output, err)
	}
	defer f.Close()

	sum, err := flatten.Generate(cmd.Context(), workspace.NewLocal(root), flatten.Options{
		Dir:        ".",
		Title:      filepath.Base(root),
		Extensions: opts.extensions,
		Exclude:    exclude,
	}, f)
	if err != nil {
		return sum, err
	}
	return sum, f.Close()
}
