// Package editmap defines the records the analysis pipeline passes between
// stages and the EditMap aggregate it writes once per job.
//
// Every type here is a plain value: stages fully materialize their output
// before handing it on, and nothing is mutated after assembly.
package editmap
