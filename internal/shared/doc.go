// Package shared provides test helpers used across the taxipulse codebase.
//
// # Structure
//
// - testutil: a capturing slog handler and trip fixtures
//
// This package should only contain helpers used by more than one package and
// must not depend on any internal package other than the domain contracts.
package shared
