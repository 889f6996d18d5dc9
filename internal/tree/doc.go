// Package tree implements the tagged namespace tree the target matrix and
// the configuration engine are built on. A Node is either a Namespace (an
// ordered mapping of names to child nodes) or a Leaf carrying a payload; the
// tag is explicit so generic traversal never has to guess which one it is
// looking at.
package tree
