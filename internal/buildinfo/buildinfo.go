// Package buildinfo carries release metadata stamped at link time.
package buildinfo

// Set via -ldflags by the release pipeline. Dev builds leave them empty
// and fall back to module build info.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
