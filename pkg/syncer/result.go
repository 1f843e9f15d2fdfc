package syncer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind selects how much work a run does.
type Kind string

const (
	// Full re-extracts every file.
	Full Kind = "full"
	// Delta re-extracts only files whose remote version changed.
	Delta Kind = "delta"
)

// ParseKind accepts "full" or "delta".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Full, Delta:
		return k, nil
	}
	return "", fmt.Errorf("unknown sync kind %q (want full or delta)", s)
}

// Outcome is the overall result of a run.
type Outcome string

const (
	OutcomeSucceeded      Outcome = "succeeded"
	OutcomePartialFailure Outcome = "partial_failure"
	OutcomeFailed         Outcome = "failed"
	OutcomeAlreadyRunning Outcome = "already_running"
)

// FileStatus is the result of one file within a run.
type FileStatus string

const (
	FileSynced    FileStatus = "synced"
	FileUnchanged FileStatus = "unchanged"
	FileFailed    FileStatus = "failed"
)

// File is one remote file to keep in sync.
type File struct {
	ID       string   `json:"id"`
	Priority int      `json:"priority"`
	NodeIDs  []string `json:"nodeIds,omitempty"`
}

// FileResult reports what happened to one file.
type FileResult struct {
	FileID     string     `json:"fileId"`
	Name       string     `json:"name,omitempty"`
	Status     FileStatus `json:"status"`
	Version    string     `json:"version,omitempty"`
	Tokens     int        `json:"tokens"`
	Components int        `json:"components"`
	Pages      int        `json:"pages"`
	Skipped    int        `json:"skippedNodes,omitempty"`
	Error      string     `json:"error,omitempty"`

	err error
}

// Err returns the failure of the file, if any.
func (r FileResult) Err() error { return r.err }

// Result summarizes a run.
type Result struct {
	RunID      string       `json:"runId,omitempty"`
	Kind       Kind         `json:"kind"`
	Outcome    Outcome      `json:"outcome"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Files      []FileResult `json:"files,omitempty"`
}

// Count returns how many files ended with status.
func (r *Result) Count(status FileStatus) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// ErrTotalSyncFailure matches a *TotalFailureError.
var ErrTotalSyncFailure = errors.New("every file failed to sync")

// TotalFailureError is returned when no file of a run succeeded. The previous
// cache is left untouched.
type TotalFailureError struct {
	Errs []error
}

func (e *TotalFailureError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s: %s", ErrTotalSyncFailure, strings.Join(msgs, "; "))
}

// Is matches ErrTotalSyncFailure.
func (e *TotalFailureError) Is(target error) bool { return target == ErrTotalSyncFailure }

// Unwrap exposes the per-file errors to errors.Is and errors.As.
func (e *TotalFailureError) Unwrap() []error { return e.Errs }
