// Package deps checks the external binaries and directories the worker needs
// before it claims jobs.
package deps
