// Package schemas embeds the CUE schemas configuration files are checked against.
package schemas

import _ "embed"

// Simulation is the schema for simulation configuration files.
//
//go:embed simulation.cue
var Simulation []byte
