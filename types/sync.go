package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SyncCategory identifies the kind of entity a sync envelope carries.
type SyncCategory string

// Supported sync categories.
const (
	CategoryProject   SyncCategory = "PROJECT"
	CategoryProcess   SyncCategory = "PROCESS"
	CategoryTask      SyncCategory = "TASK"
	CategoryBoard     SyncCategory = "BOARD"
	CategoryChat      SyncCategory = "CHAT"
	CategoryHeartbeat SyncCategory = "HEARTBEAT"
)

// SyncCategories lists every category in polling order.
var SyncCategories = []SyncCategory{
	CategoryProject,
	CategoryProcess,
	CategoryTask,
	CategoryBoard,
	CategoryChat,
	CategoryHeartbeat,
}

// Valid reports whether c is a known category.
func (c SyncCategory) Valid() bool {
	for _, known := range SyncCategories {
		if c == known {
			return true
		}
	}
	return false
}

// SyncAction is the mutation an envelope describes.
type SyncAction string

// Supported sync actions.
const (
	ActionCreate SyncAction = "CREATE"
	ActionUpdate SyncAction = "UPDATE"
	ActionDelete SyncAction = "DELETE"
	ActionPing   SyncAction = "PING"
)

// Valid reports whether a is a known action.
func (a SyncAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionPing:
		return true
	default:
		return false
	}
}

// ErrPayloadMismatch is returned when an envelope payload does not match its category.
var ErrPayloadMismatch = errors.New("sync payload does not match category")

// Presence is the heartbeat payload.
type Presence struct {
	Status string `json:"status"`
}

// SyncPayload is the entity snapshot carried by an envelope.
//
// It is a tagged union keyed by the envelope category: at most one field
// is set, and it must be the one matching the category. DELETE envelopes
// may carry an empty payload.
type SyncPayload struct {
	Project  *Project
	Process  *Process
	Task     *Task
	Board    *BoardPost
	Chat     *ChatMessage
	Presence *Presence
}

// PayloadFor wraps an entity snapshot into the variant for category.
func PayloadFor(category SyncCategory, value any) (SyncPayload, error) {
	var p SyncPayload
	if value == nil {
		return p, nil
	}
	switch category {
	case CategoryProject:
		v, ok := value.(Project)
		if !ok {
			return p, fmt.Errorf("%w: %s wants Project, got %T", ErrPayloadMismatch, category, value)
		}
		p.Project = &v
	case CategoryProcess:
		v, ok := value.(Process)
		if !ok {
			return p, fmt.Errorf("%w: %s wants Process, got %T", ErrPayloadMismatch, category, value)
		}
		p.Process = &v
	case CategoryTask:
		v, ok := value.(Task)
		if !ok {
			return p, fmt.Errorf("%w: %s wants Task, got %T", ErrPayloadMismatch, category, value)
		}
		p.Task = &v
	case CategoryBoard:
		v, ok := value.(BoardPost)
		if !ok {
			return p, fmt.Errorf("%w: %s wants BoardPost, got %T", ErrPayloadMismatch, category, value)
		}
		p.Board = &v
	case CategoryChat:
		v, ok := value.(ChatMessage)
		if !ok {
			return p, fmt.Errorf("%w: %s wants ChatMessage, got %T", ErrPayloadMismatch, category, value)
		}
		p.Chat = &v
	case CategoryHeartbeat:
		v, ok := value.(Presence)
		if !ok {
			return p, fmt.Errorf("%w: %s wants Presence, got %T", ErrPayloadMismatch, category, value)
		}
		p.Presence = &v
	default:
		return p, fmt.Errorf("unknown sync category %q", category)
	}
	return p, nil
}

// Empty reports whether no variant is set.
func (p SyncPayload) Empty() bool {
	return p.Project == nil && p.Process == nil && p.Task == nil &&
		p.Board == nil && p.Chat == nil && p.Presence == nil
}

// SyncMeta records when and by whom an envelope was produced.
type SyncMeta struct {
	// Timestamp is the production time in Unix milliseconds.
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
}

// Time returns the meta timestamp as a time.Time.
func (m SyncMeta) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// SyncMessage is the envelope that propagates one local mutation to
// other clients. Envelopes are replayed idempotently by ID and applied
// per TargetID in Meta.Timestamp order.
type SyncMessage struct {
	ID       string
	Category SyncCategory
	Action   SyncAction
	TargetID string
	Payload  SyncPayload
	Meta     SyncMeta
}

type syncMessageWire struct {
	ID       string          `json:"id"`
	Category SyncCategory    `json:"category"`
	Action   SyncAction      `json:"action"`
	TargetID string          `json:"targetId"`
	Payload  json.RawMessage `json:"payload"`
	Meta     SyncMeta        `json:"meta"`
}

// MarshalJSON writes the active payload variant under "payload".
func (m SyncMessage) MarshalJSON() ([]byte, error) {
	payload, err := m.encodePayload()
	if err != nil {
		return nil, err
	}
	return json.Marshal(syncMessageWire{
		ID:       m.ID,
		Category: m.Category,
		Action:   m.Action,
		TargetID: m.TargetID,
		Payload:  payload,
		Meta:     m.Meta,
	})
}

// UnmarshalJSON decodes the payload into the variant selected by "category".
func (m *SyncMessage) UnmarshalJSON(data []byte) error {
	var wire syncMessageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if !wire.Category.Valid() {
		return fmt.Errorf("unknown sync category %q", wire.Category)
	}
	if !wire.Action.Valid() {
		return fmt.Errorf("unknown sync action %q", wire.Action)
	}

	payload, err := decodePayload(wire.Category, wire.Payload)
	if err != nil {
		return err
	}

	*m = SyncMessage{
		ID:       wire.ID,
		Category: wire.Category,
		Action:   wire.Action,
		TargetID: wire.TargetID,
		Payload:  payload,
		Meta:     wire.Meta,
	}
	return nil
}

func (m SyncMessage) encodePayload() (json.RawMessage, error) {
	p := m.Payload
	var value any
	switch m.Category {
	case CategoryProject:
		value = p.Project
	case CategoryProcess:
		value = p.Process
	case CategoryTask:
		value = p.Task
	case CategoryBoard:
		value = p.Board
	case CategoryChat:
		value = p.Chat
	case CategoryHeartbeat:
		value = p.Presence
	default:
		return nil, fmt.Errorf("unknown sync category %q", m.Category)
	}
	if p.variants() > 1 || (p.variants() == 1 && isNilPointer(value)) {
		return nil, fmt.Errorf("%w: %s", ErrPayloadMismatch, m.Category)
	}
	return json.Marshal(value)
}

func (p SyncPayload) variants() int {
	n := 0
	for _, set := range []bool{p.Project != nil, p.Process != nil, p.Task != nil, p.Board != nil, p.Chat != nil, p.Presence != nil} {
		if set {
			n++
		}
	}
	return n
}

func isNilPointer(value any) bool {
	switch v := value.(type) {
	case *Project:
		return v == nil
	case *Process:
		return v == nil
	case *Task:
		return v == nil
	case *BoardPost:
		return v == nil
	case *ChatMessage:
		return v == nil
	case *Presence:
		return v == nil
	default:
		return value == nil
	}
}

func decodePayload(category SyncCategory, raw json.RawMessage) (SyncPayload, error) {
	var p SyncPayload
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}

	var err error
	switch category {
	case CategoryProject:
		p.Project = new(Project)
		err = json.Unmarshal(raw, p.Project)
	case CategoryProcess:
		p.Process = new(Process)
		err = json.Unmarshal(raw, p.Process)
	case CategoryTask:
		p.Task = new(Task)
		err = json.Unmarshal(raw, p.Task)
	case CategoryBoard:
		p.Board = new(BoardPost)
		err = json.Unmarshal(raw, p.Board)
	case CategoryChat:
		p.Chat = new(ChatMessage)
		err = json.Unmarshal(raw, p.Chat)
	case CategoryHeartbeat:
		p.Presence = new(Presence)
		err = json.Unmarshal(raw, p.Presence)
	}
	if err != nil {
		return SyncPayload{}, fmt.Errorf("decode %s payload: %w", category, err)
	}
	return p, nil
}
