package domain

import "time"

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobActive    JobStatus = "active"
	JobPaused    JobStatus = "paused"
	JobCompleted JobStatus = "completed"
	JobInactive  JobStatus = "inactive"
)

// Valid reports whether s is one of the known job statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobActive, JobPaused, JobCompleted, JobInactive:
		return true
	}
	return false
}

// Job is a unit of contracted work. Client name and address are denormalised
// from the client record at the time the job is saved.
type Job struct {
	ID            string     `json:"id" bson:"_id" validate:"required"`
	AccountID     string     `json:"account_id" bson:"account_id" validate:"required"`
	Name          string     `json:"name" bson:"name" validate:"required,max=200"`
	ClientID      string     `json:"client_id,omitempty" bson:"client_id,omitempty"`
	ClientName    string     `json:"client_name" bson:"client_name"`
	ClientAddress string     `json:"client_address,omitempty" bson:"client_address,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
	Status        JobStatus  `json:"status" bson:"status" validate:"required,oneof=active paused completed inactive"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
}
