// Package engine builds the self-referential toolchain configuration. A
// configuration is realized from an argument object through a registered
// universe constructor: one lazily-constructed package universe per target
// matrix leaf, plus caller-supplied top-level extension fields. Derived
// configurations are produced through chained, non-mutating overrides of the
// argument object.
//
// Configurations are single-threaded by design: fields resolve through
// memoized suspensions on first read, and a field that transitively needs
// its own unresolved value is reported as a fatal cycle with the full field
// chain.
package engine
