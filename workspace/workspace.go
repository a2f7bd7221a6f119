// Package workspace is the filesystem capability that tools act through.
//
// Every path a tool receives is interpreted relative to the workspace root,
// and paths that resolve outside of it are refused.
package workspace

import "context"

// Provider reads, lists and writes files on behalf of tools.
//
// Errors wrap agent.ErrNotFound, agent.ErrNotReadable or
// agent.ErrNotWritable.
type Provider interface {
	// Read returns the full text content of the file at path.
	Read(ctx context.Context, path string) ([]byte, error)
	// List returns the entries under path, relative to it and in lexical
	// order. Directories carry a trailing slash.
	List(ctx context.Context, path string, recursive bool) ([]string, error)
	// Write replaces the file at path, creating missing parent directories.
	Write(ctx context.Context, path string, content []byte) error
}
