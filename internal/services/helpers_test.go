package services

import (
	"context"
	"sync"
	"time"

	"github.com/deojon/studio/types"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []types.SyncMessage
}

func (r *recordingBroadcaster) Broadcast(
	ctx context.Context,
	category types.SyncCategory,
	action types.SyncAction,
	targetID string,
	payload any,
	userID, userName string,
) (types.SyncMessage, error) {
	p, err := types.PayloadFor(category, payload)
	if err != nil {
		return types.SyncMessage{}, err
	}
	msg := types.SyncMessage{
		Category: category,
		Action:   action,
		TargetID: targetID,
		Payload:  p,
		Meta:     types.SyncMeta{UserID: userID, UserName: userName},
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return msg, nil
}

func (r *recordingBroadcaster) last() types.SyncMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[len(r.messages)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type mapPrefs map[string]string

func (m mapPrefs) Get(_ context.Context, key string) (string, error) {
	value, ok := m[key]
	if !ok {
		return "", ErrPreferenceNotFound
	}
	return value, nil
}

func (m mapPrefs) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m mapPrefs) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

type outbox struct {
	to   []string
	body string
}

func (o *outbox) SendEmail(to []string, subject, body string) error {
	o.to = to
	o.body = body
	return nil
}

type failingMailer struct{ err error }

func (f failingMailer) SendEmail(to []string, subject, body string) error {
	return f.err
}
