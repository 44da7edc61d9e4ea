package sql

import "embed"

// SchemaFS contains the goose migrations under schema/
//
//go:embed schema/*.sql
var SchemaFS embed.FS

// SchemaDir is the migration directory within SchemaFS
const SchemaDir = "schema"
