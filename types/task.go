package types

import "time"

// Task represents a to-do item on the schedule.
// Private tasks are visible only to their author; public tasks act as
// team-wide notices.
type Task struct {
	// ID is the unique identifier of the task.
	ID string `json:"id" db:"id"`

	// Text is the task description.
	Text string `json:"text" db:"text"`

	// TargetDate is the due date (YYYY-MM-DD).
	TargetDate string `json:"targetDate" db:"target_date"`

	// RegDate is the registration date (YYYY-MM-DD).
	RegDate string `json:"regDate" db:"reg_date"`

	// Completed reports whether the task is done.
	Completed bool `json:"completed" db:"is_completed"`

	// Author is the display name of the author at creation time.
	Author string `json:"author" db:"-"`

	// AuthorID is the user who created the task. Only the author may
	// mutate or delete it.
	AuthorID string `json:"authorId" db:"author_id"`

	// AuthorAvatar is the author's avatar URI at creation time.
	AuthorAvatar string `json:"authorAvatar" db:"-"`

	// IsPublic makes the task visible to every viewer.
	IsPublic bool `json:"isPublic" db:"is_public"`

	// CreatedAt is the timestamp at which the task was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// EntityID returns the task id.
func (t Task) EntityID() string { return t.ID }

// Created returns the task creation time.
func (t Task) Created() time.Time { return t.CreatedAt }

// OwnerID returns the author of the task.
func (t Task) OwnerID() string { return t.AuthorID }
