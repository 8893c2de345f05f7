package model

import (
	"strings"
	"time"
)

const (
	refTagPrefix    = "refs/tags/"
	refBranchPrefix = "refs/heads/"
)

// TriggerContext describes the version-control event that caused a run.
// It is read-only for the duration of the run.
type TriggerContext struct {
	// IsTag reports whether the run was triggered by a tag push.
	IsTag bool

	// Branch is the branch name for branch pushes, empty for tag pushes.
	Branch string

	// Tag is the tag name for tag pushes, empty otherwise.
	Tag string

	// Commit is the commit SHA the run is testing, when known.
	Commit string
}

// TriggerFromRef builds a trigger context from a git reference such as
// "refs/heads/main" or "refs/tags/v1.2.0".
func TriggerFromRef(ref, commit string) TriggerContext {
	tc := TriggerContext{Commit: commit}
	switch {
	case strings.HasPrefix(ref, refTagPrefix):
		tc.IsTag = true
		tc.Tag = strings.TrimPrefix(ref, refTagPrefix)
	case strings.HasPrefix(ref, refBranchPrefix):
		tc.Branch = strings.TrimPrefix(ref, refBranchPrefix)
	default:
		tc.Branch = ref
	}
	return tc
}

// Ref renders the trigger back to a git reference, mostly for logging.
func (t TriggerContext) Ref() string {
	if t.IsTag {
		return refTagPrefix + t.Tag
	}
	return refBranchPrefix + t.Branch
}

// PushEvent is a normalized version-control push notification received by
// the webhook controller.
type PushEvent struct {
	ID         string    // delivery ID assigned by the sender
	Repository string    // full repository name, e.g. "owner/repo"
	Ref        string    // pushed reference
	Commit     string    // head commit SHA after the push
	Sender     string    // user who pushed
	Deleted    bool      // true when the push deleted the reference
	ReceivedAt time.Time // time the event was received
}

// Trigger derives the trigger context of this push.
func (e *PushEvent) Trigger() TriggerContext {
	return TriggerFromRef(e.Ref, e.Commit)
}
