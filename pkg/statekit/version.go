// Package statekit holds build metadata for the statekit module.
package statekit

// Version is the release version. Builds stamp it with -ldflags -X.
var Version = "0.1.0"
