// Package registry binds compiled-in modules to the configuration engine:
// modules contribute named package-universe constructors and top-level
// extension constructors, and the app selects which universe family a
// configuration is realized with.
package registry
