// Package flatten renders a source tree as a single markdown document: a
// structure listing followed by every file in a fenced code block.
package flatten

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	agent "github.com/FarhanAliRaza/Mardown-rs"
	"github.com/FarhanAliRaza/Mardown-rs/workspace"
)

// Options selects the files to render.
type Options struct {
	// Dir is the directory to flatten, relative to the workspace root.
	Dir string
	// Title heads the document. Defaults to the base name of Dir.
	Title string
	// Extensions keeps only files with these extensions, with or without
	// the leading dot. Empty keeps everything.
	Extensions []string
	// Exclude drops files matching any doublestar pattern.
	Exclude []string
}

// Summary reports what Generate wrote.
type Summary struct {
	Files   int
	Skipped int
}

// Generate lists opts.Dir through ws and writes the markdown document to w.
// Binary and unreadable files are skipped and counted. Listing failures and
// write failures are returned.
func Generate(ctx context.Context, ws workspace.Provider, opts Options, w io.Writer) (Summary, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	entries, err := ws.List(ctx, dir, true)
	if err != nil {
		return Summary{}, fmt.Errorf("flatten: list %s: %w", dir, err)
	}

	exts := normalizeExtensions(opts.Extensions)
	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry, "/") {
			continue
		}
		if !keepExtension(exts, entry) || workspace.MatchAny(opts.Exclude, entry) {
			continue
		}
		files = append(files, entry)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n\n", title(opts.Title, dir))
	writeStructure(bw, files)

	var sum Summary
	bw.WriteString("## Files\n")
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		data, err := ws.Read(ctx, path.Join(dir, rel))
		if err != nil {
			if errors.Is(err, agent.ErrNotReadable) || errors.Is(err, agent.ErrNotFound) {
				sum.Skipped++
				continue
			}
			return sum, fmt.Errorf("flatten: read %s: %w", rel, err)
		}
		writeFile(bw, rel, data)
		sum.Files++
	}
	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("flatten: write: %w", err)
	}
	return sum, nil
}

func writeStructure(w *bufio.Writer, files []string) {
	w.WriteString("## Structure\n\n```text\n")
	for _, f := range files {
		w.WriteString(f)
		w.WriteByte('\n')
	}
	w.WriteString("```\n\n")
}

func writeFile(w *bufio.Writer, rel string, data []byte) {
	fence := fenceFor(data)
	fmt.Fprintf(w, "\n### %s\n\n%s%s\n", rel, fence, Language(rel))
	w.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		w.WriteByte('\n')
	}
	w.WriteString(fence)
	w.WriteByte('\n')
}

// fenceFor returns a backtick fence longer than any run of backticks in data,
// so markdown files with their own code blocks stay intact.
func fenceFor(data []byte) string {
	longest, run := 0, 0
	for _, b := range data {
		if b == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}

func title(t, dir string) string {
	if t != "" {
		return t
	}
	if base := path.Base(path.Clean(dir)); base != "." && base != "/" {
		return base
	}
	return "project"
}

func normalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = true
		}
	}
	return set
}

func keepExtension(set map[string]bool, rel string) bool {
	if set == nil {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(rel), "."))
	return set[ext]
}
