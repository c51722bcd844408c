package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// BatchRun is a persisted batch invocation.
type BatchRun struct {
	ID          surrealmodels.RecordID `json:"id"`
	Provider    string                 `json:"provider"`
	Model       string                 `json:"model"`
	Mode        string                 `json:"mode"`
	Strict      bool                   `json:"strict"`
	InputDir    string                 `json:"input_dir"`
	OutputDir   string                 `json:"output_dir"`
	Total       int                    `json:"total"`
	Counts      map[string]int         `json:"counts,omitempty"` // files per RunStatus
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// FileRun is a persisted RunRecord.
type FileRun struct {
	ID           surrealmodels.RecordID `json:"id,omitempty"`
	Run          surrealmodels.RecordID `json:"run"`
	File         string                 `json:"file"`
	Mode         string                 `json:"mode"`
	Chunks       int                    `json:"chunks"`
	ElapsedMs    int64                  `json:"elapsed_ms"`
	FailedChunks []int                  `json:"failed_chunks"`
	Records      int                    `json:"records"`
	Status       string                 `json:"status"`
	Output       *string                `json:"output,omitempty"`
	Error        *string                `json:"error,omitempty"`
}
