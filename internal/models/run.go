package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode selects how chunks of one file are scheduled.
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeParallel, ModeSequential:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want parallel or sequential)", s)
}

// RunStatus is the terminal outcome of one file.
type RunStatus string

const (
	StatusSuccess        RunStatus = "success"
	StatusPartialSuccess RunStatus = "partial-success"
	StatusFailedChunks   RunStatus = "failed-chunks"
	StatusParseFailed    RunStatus = "parse-failed"
	StatusNoData         RunStatus = "no-data"
	StatusEmpty          RunStatus = "empty"
	StatusNotFound       RunStatus = "not-found"
	StatusReadFailed     RunStatus = "read-failed"
	StatusWriteFailed    RunStatus = "write-failed"
	StatusInterrupted    RunStatus = "interrupted"
	StatusSkipped        RunStatus = "skipped"
)

// RunRecord describes what happened to one input file.
type RunRecord struct {
	File         string
	Mode         Mode
	Chunks       int
	Elapsed      time.Duration
	FailedChunks []int
	Records      int
	Status       RunStatus
	Output       string // written path, empty when nothing was saved
	Err          string
}

// Saved reports whether an output file was written for this run.
func (r RunRecord) Saved() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartialSuccess
}

// Outcome renders the status tag shown in summaries.
func (r RunRecord) Outcome() string {
	if len(r.FailedChunks) == 0 || (r.Status != StatusPartialSuccess && r.Status != StatusFailedChunks) {
		return string(r.Status)
	}
	idx := make([]string, len(r.FailedChunks))
	for i, c := range r.FailedChunks {
		idx[i] = strconv.Itoa(c)
	}
	return fmt.Sprintf("%s (missing chunks: %s)", r.Status, strings.Join(idx, ","))
}
