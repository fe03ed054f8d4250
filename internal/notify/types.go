package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Notification domain types and wire decoding.
// The server double-encodes the payload: the stream envelope (and the REST
// list response) carry a "message" field that is itself a JSON string.
// We decode it exactly once, at the edge; nothing downstream re-parses raw strings.

// Kind discriminates the notification payload variants
type Kind string

const (
	KindFollow  Kind = "follow"   // someone followed the user
	KindMention Kind = "mention"  // mentioned in a post
	KindLike    Kind = "like"     // post was liked
	KindComment Kind = "comment"  // post was commented on
	KindCall    Kind = "call"     // incoming/missed call
	KindNewChat Kind = "new_chat" // new chat room opened
	KindLive    Kind = "live"     // followed user went live
	KindUnknown Kind = "unknown"  // unrecognized kind, kept instead of dropped
)

// Actor is the user a notification originates from
type Actor struct {
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profile_picture"`
}

// Payload is the decoded notification payload. Kind selects which of the
// optional fields are meaningful:
//   - follow: From
//   - mention, like: From, PostID
//   - comment: From, PostID, Content
//   - call: From, RoomID, CallID, CallStatus
//   - new_chat: From, RoomID
//   - live: From, LiveID
type Payload struct {
	Kind       Kind   `json:"type"`
	From       Actor  `json:"from_user"`
	Content    string `json:"content,omitempty"`
	PostID     int64  `json:"post_id,omitempty"`
	RoomID     int64  `json:"room_id,omitempty"`
	CallID     int64  `json:"call_id,omitempty"`
	CallStatus string `json:"call_status,omitempty"`
	LiveID     int64  `json:"live_id,omitempty"`
}

// Notification is one entry of the user's feed as the client sees it
type Notification struct {
	ID        int64
	IsRead    bool
	CreatedAt time.Time
	Payload   Payload
}

// knownKinds for validating the discriminator on decode
var knownKinds = map[Kind]bool{
	KindFollow:  true,
	KindMention: true,
	KindLike:    true,
	KindComment: true,
	KindCall:    true,
	KindNewChat: true,
	KindLive:    true,
}

// DecodePayload parses the inner JSON string carried in the "message" field.
// An unrecognized kind is not an error: it decodes to KindUnknown so a newer
// server cannot break an older client.
func DecodePayload(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("decode notification payload: %w", err)
	}
	if !knownKinds[p.Kind] {
		p.Kind = KindUnknown
	}
	return p, nil
}

// wireNotification is the shape both the stream envelope and the REST list
// endpoint use for a single notification
type wireNotification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"` // nested JSON, see DecodePayload
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// decode converts a wire notification into the domain type, resolving the
// nested payload
func (w *wireNotification) decode() (Notification, error) {
	payload, err := DecodePayload(w.Message)
	if err != nil {
		return Notification{}, fmt.Errorf("notification %d: %w", w.ID, err)
	}
	return Notification{
		ID:        w.ID,
		IsRead:    w.IsRead,
		CreatedAt: w.CreatedAt,
		Payload:   payload,
	}, nil
}

// CallAlert is the transient incoming-call signal delivered on the side
// channel. It is never stored: it exists only to prompt a one-shot alert.
type CallAlert struct {
	From       Actor
	RoomID     int64
	CallID     int64
	CallStatus string
}
