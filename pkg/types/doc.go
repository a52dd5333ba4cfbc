// Package types defines the state snapshot, the schema that describes its
// fields, the collaborator interfaces (key-value backend, navigator,
// transport) and the standard errors for the statekit state core.
package types
