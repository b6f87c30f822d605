package model

import "time"

type SessionStatus string

const (
	SessionWaiting   SessionStatus = "waiting"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Session is one teacher-run tournament instance grouping students into a bracket.
type Session struct {
	ID        string        `json:"id" bson:"_id"`
	HostID    string        `json:"hostId" bson:"hostId"`
	Name      string        `json:"name" bson:"name"`
	Status    SessionStatus `json:"status" bson:"status"`
	WinnerID  string        `json:"winnerId,omitempty" bson:"winnerId,omitempty"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
	EndedAt   *time.Time    `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}
