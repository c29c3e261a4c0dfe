// Package lib carries the embedded ints standard library. The headers
// resolver falls back to these sources when an angle bracket use target
// matches no header directory or bundle entry.
package lib

import "embed"

// Files holds the standard headers, one file per use <name> target.
//
//go:embed *.ints
var Files embed.FS
