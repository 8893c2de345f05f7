package model

import "time"

// EntryStatus is the pass/fail outcome of one matrix entry.
type EntryStatus string

const (
	StatusPass EntryStatus = "pass"
	StatusFail EntryStatus = "fail"
)

// Environment is an isolated execution context prepared by the provisioner
// for a single matrix entry.
type Environment struct {
	// Runtime is the requested runtime version identifier.
	Runtime string

	// Command is the resolved absolute path of the interpreter binary.
	Command string

	// WorkDir is the directory commands run in.
	WorkDir string

	// TempDir is a private scratch directory, removed on cleanup.
	TempDir string

	// Env is the complete environment variable set, KEY=VALUE form.
	Env []string
}

// TaskSpec is the unit of work the task runner executes in a provisioned
// environment.
type TaskSpec struct {
	Entry MatrixEntry

	// Commands is the fixed command sequence; execution stops at the
	// first non-zero exit.
	Commands []string

	// ArtifactPath is the expected location (relative to the work
	// directory) of the structured result report, empty when the
	// pipeline produces none.
	ArtifactPath string
}

// EntryResult is the outcome of one matrix entry. It is produced by the
// task runner, optionally published, and discarded with the run report.
type EntryResult struct {
	Config  string
	Runtime string
	Status  EntryStatus

	// ExitCode is the exit status of the failed command, 0 on pass.
	ExitCode int

	// FailedCommand is the command that produced the non-zero exit.
	FailedCommand string

	// ArtifactPath is the absolute path of the result artifact, empty
	// when the task produced none.
	ArtifactPath string

	// Published reports whether the artifact was uploaded.
	Published bool

	// Output is the combined stdout/stderr of the command sequence.
	Output []byte

	// FailureReason carries provisioning or infrastructure errors that
	// prevented the entry from running at all.
	FailureReason string

	Duration time.Duration
}

// Passed reports whether the entry succeeded.
func (r *EntryResult) Passed() bool {
	return r.Status == StatusPass
}

// RunReport aggregates the results of all matrix entries of one run.
type RunReport struct {
	ID       string
	Pipeline string
	Trigger  TriggerContext

	Entries []*EntryResult

	// Deployed reports whether the release gate invoked deployment.
	Deployed bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// Passed computes the aggregate status: pass iff every entry passed.
// An empty matrix is vacuously passing.
func (r *RunReport) Passed() bool {
	for _, e := range r.Entries {
		if !e.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the entries that did not pass.
func (r *RunReport) Failed() []*EntryResult {
	var failed []*EntryResult
	for _, e := range r.Entries {
		if !e.Passed() {
			failed = append(failed, e)
		}
	}
	return failed
}
