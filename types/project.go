package types

import "time"

// ProjectStatus is the derived lifecycle state of a project.
type ProjectStatus string

// Supported project statuses.
const (
	StatusInProgress ProjectStatus = "In Progress"
	StatusCompleted  ProjectStatus = "Completed"
)

// Project represents a tracked studio project.
//
// Progress and Status are derived from the project's processes on every
// read and are never authoritative when written by a caller.
type Project struct {
	// ID is the unique identifier of the project.
	ID string `json:"id" db:"id"`

	// Title is the human-readable name of the project.
	Title string `json:"title" db:"title"`

	// Description contains the project summary.
	Description string `json:"description" db:"description"`

	// Progress is the completion percentage (0-100) derived from processes.
	Progress int `json:"progress" db:"-"`

	// Status is Completed when Progress is 100, In Progress otherwise.
	Status ProjectStatus `json:"status" db:"-"`

	// DueDate is the target completion date (YYYY-MM-DD).
	DueDate string `json:"dueDate" db:"due_date"`

	// Members lists the avatar URIs of the people assigned to the project.
	Members []string `json:"members" db:"members"`

	// CreatedAt is the timestamp at which the project was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Process represents one step of a project's workflow.
type Process struct {
	// ID is the unique identifier of the process.
	ID string `json:"id" db:"id"`

	// ProjectID identifies the project this process belongs to.
	ProjectID string `json:"projectId" db:"project_id"`

	// Title is the human-readable name of the process.
	Title string `json:"title" db:"title"`

	// Description contains the process details.
	Description string `json:"description" db:"description"`

	// StartDate is the planned start date (YYYY-MM-DD).
	StartDate string `json:"startDate" db:"start_date"`

	// EndDate is the planned end date (YYYY-MM-DD).
	EndDate string `json:"endDate" db:"end_date"`

	// Members lists the avatar URIs of the people assigned to the process.
	Members []string `json:"members" db:"members"`

	// IsCompleted reports whether the process is done.
	IsCompleted bool `json:"isCompleted" db:"is_completed"`

	// AuthorID is the user who created the process. Only the author may
	// edit it or toggle its completion.
	AuthorID string `json:"authorId" db:"author_id"`

	// CreatedAt is the timestamp at which the process was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// EntityID returns the project id.
func (p Project) EntityID() string { return p.ID }

// Created returns the project creation time.
func (p Project) Created() time.Time { return p.CreatedAt }

// EntityID returns the process id.
func (p Process) EntityID() string { return p.ID }

// Created returns the process creation time.
func (p Process) Created() time.Time { return p.CreatedAt }

// OwnerID returns the author of the process.
func (p Process) OwnerID() string { return p.AuthorID }
