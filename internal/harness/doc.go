// Package harness supervises simulation runs. It launches an external
// command, tees its combined output into an operator-visible log and a
// concurrent sentinel scan, races the scan against a deadline, and
// guarantees the child process is cleaned up on every exit path.
package harness
