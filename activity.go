package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const activityFile = "activity.jsonl"

// activityEvent is one line of the activity log.
type activityEvent struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"`
	Resource  string            `json:"resource,omitempty"`
	RecordID  string            `json:"record_id,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// activityLog appends user-visible events as JSON lines.
type activityLog struct {
	path      string
	sessionID string
	userID    string
	now       func() time.Time
	mu        sync.Mutex
}

func newActivityLog(path, userID string) *activityLog {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	return &activityLog{
		path:      path,
		sessionID: uuid.NewString(),
		userID:    strings.TrimSpace(userID),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetUser records who later events belong to.
func (a *activityLog) SetUser(userID string) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.userID = strings.TrimSpace(userID)
	a.mu.Unlock()
}

func (a *activityLog) Emit(event activityEvent) {
	if a == nil || strings.TrimSpace(event.Event) == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if event.SessionID == "" {
		event.SessionID = a.sessionID
	}
	if strings.TrimSpace(event.UserID) == "" {
		event.UserID = a.userID
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = a.now()
	}
	if len(event.Extra) == 0 {
		event.Extra = nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(data)
}

func resolveActivityUserID(lookup func(string) string) string {
	for _, key := range []string{"ADMIN_USER", "USER", "USERNAME"} {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v
		}
	}
	return ""
}
