// Package domain defines the persistence models shared with the chat front
// end's relational store. Table and column names are a wire contract with
// that store and must not change. The same types are mapped with GORM for the
// SQL backends and encoded as JSON rows for the PostgREST backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Service response lifecycle states.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
)

// MessageTypeService marks chat messages authored by this relay.
const MessageTypeService = "service"

// ServiceResponse is the placeholder row an upstream step creates (as
// pending) before the answer to a session's query is known. Reconciliation
// fills in Content, merges query_id into Metadata and flips Status to success.
//
// Fields:
//   - ID: opaque identifier assigned by whoever created the row.
//   - SessionID: conversation the response belongs to (indexed with Status).
//   - Status: "pending" or "success".
//   - Content: the answer text, empty while pending.
//   - Metadata: free-form JSON object; never replaced wholesale, only merged.
//   - CreatedAt: creation time; the oldest pending row wins on ties.
type ServiceResponse struct {
	ID        string            `json:"id"         gorm:"primaryKey"`
	SessionID string            `json:"session_id" gorm:"not null;index:idx_session_status,priority:1"`
	Status    string            `json:"status"     gorm:"not null;default:'pending';index:idx_session_status,priority:2"`
	Content   string            `json:"content"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// TableName returns the database table name for ServiceResponse.
func (ServiceResponse) TableName() string { return "service_responses" }

// Message is an append-only chat line shown by the front end. Messages
// written here always reference the ServiceResponse they were produced from.
type Message struct {
	ID                int64     `json:"id,omitempty"                  gorm:"primaryKey;autoIncrement"`
	SessionID         string    `json:"session_id"                    gorm:"not null;index:idx_session_msgs,priority:1"`
	Content           string    `json:"content"`
	MessageType       string    `json:"message_type"                  gorm:"not null"`
	CreatedAt         time.Time `json:"created_at"                    gorm:"index:idx_session_msgs,priority:2"`
	ServiceResponseID string    `json:"service_response_id,omitempty" gorm:"index"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// City maps a lowercased city name to the Aryn docset holding its documents.
// Name uniqueness is checked by the ingestion code before insert; the unique
// index only exists in locally migrated stores.
type City struct {
	ID       int64  `json:"id,omitempty" gorm:"primaryKey;autoIncrement"`
	Name     string `json:"name"         gorm:"not null;uniqueIndex"`
	DocSetID string `json:"docset_id"    gorm:"column:docset_id;not null"`
}

// TableName returns the database table name for City.
func (City) TableName() string { return "cities" }
