package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ProjectType is the origin of a project request. It never changes after creation.
type ProjectType string

const (
	TypePrompt ProjectType = "prompt"
	TypeUpload ProjectType = "upload"
	TypeDemo   ProjectType = "demo"
)

func (t ProjectType) Valid() bool {
	return t == TypePrompt || t == TypeUpload || t == TypeDemo
}

// Status drives client gating. Progression is processing -> completed; error is terminal.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

func (s Status) Valid() bool {
	return s == StatusProcessing || s == StatusCompleted || s == StatusError
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ProjectID accepts both JSON strings and numbers; older clients stored Date.now() as a number.
type ProjectID string

func (id *ProjectID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ProjectID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("project id: %w", err)
	}
	*id = ProjectID(n.String())
	return nil
}

// Project is the persisted unit of work for one architectural request.
type Project struct {
	ID            ProjectID     `json:"id,omitempty"`
	Title         string        `json:"title"`
	Type          ProjectType   `json:"type"`
	Content       string        `json:"content,omitempty"`
	Files         []string      `json:"files,omitempty"`
	Status        Status        `json:"status"`
	Timestamp     int64         `json:"timestamp"`
	Modifications []string      `json:"modifications,omitempty"`
	ChatHistory   []ChatMessage `json:"chatHistory,omitempty"`
	FinalizedAt   *int64        `json:"finalizedAt,omitempty"`
}

// Clone returns a deep copy so callers never share slices with stored records.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	if p.Files != nil {
		out.Files = append([]string(nil), p.Files...)
	}
	if p.Modifications != nil {
		out.Modifications = append([]string(nil), p.Modifications...)
	}
	if p.ChatHistory != nil {
		out.ChatHistory = append([]ChatMessage(nil), p.ChatHistory...)
	}
	if p.FinalizedAt != nil {
		v := *p.FinalizedAt
		out.FinalizedAt = &v
	}
	return &out
}

// IsFinal reports whether the record went through finalize.
func (p *Project) IsFinal() bool {
	return p.FinalizedAt != nil
}

// ChatMessage is one turn of the revision chat.
type ChatMessage struct {
	ID           string `json:"id"`
	Role         Role   `json:"role"`
	Content      string `json:"content"`
	Timestamp    int64  `json:"timestamp"`
	IsProcessing bool   `json:"isProcessing,omitempty"`
}

// Input is what the intake step collects.
type Input struct {
	Type    ProjectType `json:"type"`
	Content string      `json:"content,omitempty"`
	Files   []string    `json:"files,omitempty"`
}

// Millis converts t to milliseconds since epoch.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// TimeBasedID derives a project id from the completion instant.
func TimeBasedID(t time.Time) ProjectID {
	return ProjectID(strconv.FormatInt(t.UnixMilli(), 10))
}
