// Package status defines the wire format for the Flow Engine's line-delimited
// status stream: one JSON Record per entity-state transition, flushed as it
// happens so an external collaborator can render progress without polling.
package status

import "time"

// Status is the lifecycle state of a Job or Task.
type Status string

const (
	Pending Status = "pending"
	Running Status = "running"
	Success Status = "success"
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

// Kind identifies which entity a Record describes.
type Kind string

const (
	KindRoot Kind = "root"
	KindJob  Kind = "job"
	KindTask Kind = "task"
)

// Record is one line of the status stream. Field names are part of the wire
// contract and must not change independently of the consuming renderer.
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	Status    Status    `json:"status"`
	OriginID  string    `json:"origin_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
}

// IsCache reports whether this Record describes a result reused from the
// snapshot cache rather than a fresh execution: true when OriginID is set
// and differs from ID (the entity's own result belongs to a prior run).
func (r Record) IsCache() bool {
	return r.OriginID != "" && r.OriginID != r.ID
}

// clearError blanks the error fields; called whenever a Record transitions
// to anything other than Failed so a stale error never outlives its status.
func (r *Record) clearError() {
	if r.Status != Failed {
		r.Error = ""
		r.ErrorKind = ""
	}
}
