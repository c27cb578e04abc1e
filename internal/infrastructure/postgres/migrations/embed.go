// Package migrations embebe los scripts SQL aplicados con goose (cmd/migrate).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
