// Command reelscan runs and administers the episodic footage analysis worker.
//
// `reelscan daemon` claims jobs from the local queue and writes edit maps to
// the configured metadata store. `enqueue` and the `queue` subcommands operate
// on the queue database directly, so they work whether or not the daemon is
// running. `analyze` runs one job in the foreground and prints the edit map.
package main
