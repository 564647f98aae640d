package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeFolderCreated  Type = "folder.created"
	TypeFolderUpdated  Type = "folder.updated"
	TypeFolderArchived Type = "folder.archived"
	TypeFolderRestored Type = "folder.restored"
	TypeFileCreated    Type = "file.created"
	TypeFileUpdated    Type = "file.updated"
	TypeFileArchived   Type = "file.archived"
	TypeFileRestored   Type = "file.restored"
)

// Change identifies the record an event is about. Kind is "folder" or a file kind.
type Change struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   Change `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

func New(typ Type, actorID string, change Change) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   change,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	}
}

// Bus delivers change notifications. Publish never blocks on slow subscribers.
type Bus interface {
	Publish(e Event)
	Subscribe(types ...Type) (<-chan Event, func())
}
