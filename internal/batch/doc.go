// Package batch retargets a list of file DOIs one at a time.
//
// A run holds an exclusive lock file for its whole duration so two runs
// against the same state directory cannot interleave. DOIs are processed
// strictly in order; the first failure stops the run unless KeepGoing is set.
// A DOI that is already in the desired shape is reported as skipped and never
// stops a run.
package batch
