// Package profile loads HCL profile files. A profile contributes an ordered
// chain of configuration overrides and, optionally, a simulation run
// declaration for the test harness. Files are applied in sorted path order,
// and within a file blocks apply in declaration order, so "later fields win"
// is deterministic.
package profile
