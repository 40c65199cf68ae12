// Package models defines the GORM row types for the launch event logs.
// The autoincrement primary key is the authoritative order within each log;
// clients merge by it and never by arrival order.
package models

import "time"

// LogKind identifies one of the independent interaction logs.
type LogKind string

const (
	KindChat     LogKind = "chat"
	KindReaction LogKind = "reaction"
	KindPoll     LogKind = "poll"
	KindWeather  LogKind = "weather"
)

// ChatMessage is one confirmed chat entry in an event's log.
type ChatMessage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string `gorm:"size:64;not null;index" json:"event_id"`
	ActorID   string `gorm:"size:64;not null" json:"actor_id"`
	Handle    string `gorm:"size:64" json:"handle"`
	Body      string `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionEvent is one recorded emoji tap. Aggregate counts are served from
// ReactionTotal; individual events exist for auditing and retention.
type ReactionEvent struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string `gorm:"size:64;not null;index" json:"event_id"`
	ActorID   string `gorm:"size:64" json:"actor_id"` // may be a session id for anonymous tappers
	Emoji     string `gorm:"size:16;not null" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionTotal is the aggregate counter per (event, emoji).
type ReactionTotal struct {
	EventID string `gorm:"primaryKey;size:64" json:"event_id"`
	Emoji   string `gorm:"primaryKey;size:16" json:"emoji"`
	Count   int64  `gorm:"not null;default:0" json:"count"`
}

// Poll is one audience poll attached to an event.
type Poll struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string       `gorm:"size:64;not null;index" json:"event_id"`
	Question  string       `gorm:"size:256;not null" json:"question"`
	Open      bool         `gorm:"default:true" json:"open"`
	Options   []PollOption `gorm:"foreignKey:PollID" json:"options"`
	CreatedAt time.Time    `json:"created_at"`
}

// PollOption is one answer choice, ordered by Position.
type PollOption struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PollID   uint   `gorm:"not null;index" json:"poll_id"`
	Position int    `gorm:"not null" json:"position"`
	Label    string `gorm:"size:128;not null" json:"label"`
	Votes    int64  `gorm:"not null;default:0" json:"votes"`
}

// PollVote records one actor's vote. The composite unique index is what
// makes a second vote by the same actor a no-op: the server stays
// authoritative no matter how many devices share the identity.
type PollVote struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PollID    uint   `gorm:"not null;uniqueIndex:ux_poll_actor,priority:1" json:"poll_id"`
	ActorID   string `gorm:"size:64;not null;uniqueIndex:ux_poll_actor,priority:2" json:"actor_id"`
	Position  int    `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// WeatherAdvisory is a go/no-go weather snapshot; the highest id for an
// event is the current advisory.
type WeatherAdvisory struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID    string  `gorm:"size:64;not null;index" json:"event_id"`
	Status     string  `gorm:"size:16;not null;default:go" json:"status"` // go | no-go | watch
	Summary    string  `gorm:"size:256" json:"summary"`
	WindKts    float64 `json:"wind_kts"`
	Violations string  `gorm:"type:text" json:"violations"` // newline-separated rule violations
	CreatedAt  time.Time `json:"created_at"`
}
