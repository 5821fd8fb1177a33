// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobStatus is the overall state of an evaluation job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Active reports whether a job in state s still occupies its idea.
func (s JobStatus) Active() bool {
	return s == JobPending || s == JobRunning
}

// Phase is the coarse progress marker of a running job.
type Phase string

const (
	PhaseResearch  Phase = "research"
	PhaseSynthesis Phase = "synthesis"
	PhaseComplete  Phase = "complete"
)

// SubStatus is the state of one stage of one agent.
type SubStatus string

const (
	SubPending   SubStatus = "pending"
	SubRunning   SubStatus = "running"
	SubCompleted SubStatus = "completed"
	SubFailed    SubStatus = "failed"

	// SubSkipped marks research that legacy mode never runs.
	SubSkipped SubStatus = "skipped"
)

// Done reports whether the stage has finished, successfully or not.
func (s SubStatus) Done() bool {
	return s == SubCompleted || s == SubFailed || s == SubSkipped
}

// AgentProgress is the per-stage status of one domain agent.
type AgentProgress struct {
	Research  SubStatus `json:"research" yaml:"research"`
	Synthesis SubStatus `json:"synthesis" yaml:"synthesis"`
}

// Job is the persisted progress record of one evaluation.
type Job struct {
	ID          string                   `json:"id" yaml:"id"`
	IdeaID      string                   `json:"idea_id" yaml:"idea_id"`
	Status      JobStatus                `json:"status" yaml:"status"`
	Phase       Phase                    `json:"phase" yaml:"phase"`
	Agents      map[Domain]AgentProgress `json:"agents" yaml:"agents"`
	FinalStatus SubStatus                `json:"final_status" yaml:"final_status"`
	Step        string                   `json:"current_step_description,omitempty" yaml:"current_step_description,omitempty"`
	ETASeconds  int                      `json:"estimated_time_remaining" yaml:"estimated_time_remaining"`
	Error       string                   `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt   time.Time                `json:"created_at" yaml:"created_at"`
	StartedAt   *time.Time               `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt *time.Time               `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// JobPatch is a field-level update of a job. Nil fields and absent map
// entries are left untouched so concurrent writers never clobber each other.
type JobPatch struct {
	Status      *JobStatus
	Phase       *Phase
	Research    map[Domain]SubStatus
	Synthesis   map[Domain]SubStatus
	FinalStatus *SubStatus
	Step        *string
	ETASeconds  *int
	Error       *string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Empty reports whether p changes nothing.
func (p JobPatch) Empty() bool {
	return p.Status == nil && p.Phase == nil && len(p.Research) == 0 &&
		len(p.Synthesis) == 0 && p.FinalStatus == nil && p.Step == nil &&
		p.ETASeconds == nil && p.Error == nil && p.StartedAt == nil && p.CompletedAt == nil
}

// Apply returns a copy of j with p applied.
func (p JobPatch) Apply(j Job) Job {
	agents := make(map[Domain]AgentProgress, len(Domains))
	for d, a := range j.Agents {
		agents[d] = a
	}
	for d, s := range p.Research {
		a := agents[d]
		a.Research = s
		agents[d] = a
	}
	for d, s := range p.Synthesis {
		a := agents[d]
		a.Synthesis = s
		agents[d] = a
	}
	j.Agents = agents
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Phase != nil {
		j.Phase = *p.Phase
	}
	if p.FinalStatus != nil {
		j.FinalStatus = *p.FinalStatus
	}
	if p.Step != nil {
		j.Step = *p.Step
	}
	if p.ETASeconds != nil {
		j.ETASeconds = *p.ETASeconds
	}
	if p.Error != nil {
		j.Error = *p.Error
	}
	if p.StartedAt != nil {
		t := *p.StartedAt
		j.StartedAt = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		j.CompletedAt = &t
	}
	return j
}
