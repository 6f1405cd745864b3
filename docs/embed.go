package docs

import "embed"

// FS contains long-form Markdown docs bundled with the iguana binary.
//
//go:embed reference
var FS embed.FS
