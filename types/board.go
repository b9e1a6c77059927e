package types

import "time"

// BoardPost represents a post on the general discussion board.
type BoardPost struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Content      string    `json:"content" db:"content"`
	Author       string    `json:"author" db:"-"`
	AuthorID     string    `json:"authorId" db:"author_id"`
	AuthorAvatar string    `json:"authorAvatar" db:"-"`
	RegDate      string    `json:"regDate" db:"reg_date"`
	Views        int       `json:"views" db:"views"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// EntityID returns the post id.
func (p BoardPost) EntityID() string { return p.ID }

// Created returns the post creation time.
func (p BoardPost) Created() time.Time { return p.CreatedAt }

// OwnerID returns the author of the post.
func (p BoardPost) OwnerID() string { return p.AuthorID }

// ViewCount returns the number of detail views.
func (p BoardPost) ViewCount() int { return p.Views }

// ChatMessage is one line of the team chat panel.
// Chat history is ephemeral and cleared at local midnight.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	SenderID  string    `json:"senderId"`
	Avatar    string    `json:"avatar"`
	Text      string    `json:"text"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
}

// EntityID returns the message id.
func (m ChatMessage) EntityID() string { return m.ID }

// Created returns the message creation time.
func (m ChatMessage) Created() time.Time { return m.CreatedAt }
