// Package models defines the records kept in the run ledger.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Run is a persisted reweighting run over one input tree.
type Run struct {
	ID          surrealmodels.RecordID `json:"id"`
	Input       string                 `json:"input"`
	Tree        string                 `json:"tree"`
	Output      string                 `json:"output"`
	Status      string                 `json:"status"`
	Total       int64                  `json:"total"`
	Progress    int64                  `json:"progress"`
	Seen        int64                  `json:"seen"`
	Weighted    int64                  `json:"weighted"`
	Error       *string                `json:"error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// RunInput are the fields set when a run is created.
type RunInput struct {
	ID     string
	Input  string
	Tree   string
	Output string
	Total  int64
}

// DecaySignature counts how often a decay chain was seen across runs.
type DecaySignature struct {
	ID      surrealmodels.RecordID `json:"id"`
	Label   string                 `json:"label"`
	Count   int64                  `json:"count"`
	Updated time.Time              `json:"updated"`
}
