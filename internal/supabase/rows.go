package supabase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tbourn/docset-relay/internal/domain"
)

// flexString decodes a JSON string, number or null into a string. Supabase
// projects differ on whether ids are bigint, uuid or text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("supabase: id %s is neither string nor number", b)
		}
		*f = flexString(n.String())
	}
	return nil
}

// flexTime accepts timestamptz and timestamp (no zone) renderings.
type flexTime time.Time

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = flexTime(time.Time{})
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = flexTime(v.UTC())
			return nil
		}
	}
	return fmt.Errorf("supabase: unrecognized timestamp %q", s)
}

type responseRow struct {
	ID        flexString     `json:"id"`
	SessionID flexString     `json:"session_id"`
	Status    string         `json:"status"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt flexTime       `json:"created_at"`
}

func (r responseRow) toDomain() *domain.ServiceResponse {
	return &domain.ServiceResponse{
		ID:        string(r.ID),
		SessionID: string(r.SessionID),
		Status:    r.Status,
		Content:   r.Content,
		Metadata:  r.Metadata,
		CreatedAt: time.Time(r.CreatedAt),
	}
}

type messageRow struct {
	ID                flexString `json:"id"`
	SessionID         flexString `json:"session_id"`
	Content           string     `json:"content"`
	MessageType       string     `json:"message_type"`
	CreatedAt         flexTime   `json:"created_at"`
	ServiceResponseID flexString `json:"service_response_id"`
}

// toDomain keeps numeric ids; non-numeric ones (uuid) decode to 0.
func (r messageRow) toDomain() domain.Message {
	id, _ := strconv.ParseInt(string(r.ID), 10, 64)
	return domain.Message{
		ID:                id,
		SessionID:         string(r.SessionID),
		Content:           r.Content,
		MessageType:       r.MessageType,
		CreatedAt:         time.Time(r.CreatedAt),
		ServiceResponseID: string(r.ServiceResponseID),
	}
}

type cityRow struct {
	ID       flexString `json:"id"`
	Name     string     `json:"name"`
	DocSetID flexString `json:"docset_id"`
}

func (r cityRow) toDomain() domain.City {
	id, _ := strconv.ParseInt(string(r.ID), 10, 64)
	return domain.City{ID: id, Name: r.Name, DocSetID: string(r.DocSetID)}
}
