// Package covidexport holds assets shared by the binaries of the module.
package covidexport

import "embed"

// Migrations contains the goose SQL migrations of the run history database.
//
//go:embed migrations/*.sql
var Migrations embed.FS
