package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, p Payload)
	}{
		{
			name:  "Follow",
			input: `{"type":"follow","from_user":{"username":"alice","profile_picture":null}}`,
			check: func(t *testing.T, p Payload) {
				assert.Equal(t, KindFollow, p.Kind)
				assert.Equal(t, "alice", p.From.Username)
				assert.Nil(t, p.From.ProfilePicture)
			},
		},
		{
			name:  "Mention",
			input: `{"type":"mention","from_user":{"username":"bob","profile_picture":"https://cdn/p.png"},"post_id":42}`,
			check: func(t *testing.T, p Payload) {
				assert.Equal(t, KindMention, p.Kind)
				assert.Equal(t, int64(42), p.PostID)
				require.NotNil(t, p.From.ProfilePicture)
				assert.Equal(t, "https://cdn/p.png", *p.From.ProfilePicture)
			},
		},
		{
			name:  "Comment",
			input: `{"type":"comment","from_user":{"username":"carol"},"post_id":7,"content":"nice shot"}`,
			check: func(t *testing.T, p Payload) {
				assert.Equal(t, KindComment, p.Kind)
				assert.Equal(t, "nice shot", p.Content)
				assert.Equal(t, int64(7), p.PostID)
			},
		},
		{
			name:  "Call",
			input: `{"type":"call","from_user":{"username":"dave"},"room_id":3,"call_id":11,"call_status":"missed"}`,
			check: func(t *testing.T, p Payload) {
				assert.Equal(t, KindCall, p.Kind)
				assert.Equal(t, int64(3), p.RoomID)
				assert.Equal(t, int64(11), p.CallID)
				assert.Equal(t, "missed", p.CallStatus)
			},
		},
		{
			name:  "Live",
			input: `{"type":"live","from_user":{"username":"erin"},"live_id":9}`,
			check: func(t *testing.T, p Payload) {
				assert.Equal(t, KindLive, p.Kind)
				assert.Equal(t, int64(9), p.LiveID)
			},
		},
		{
			name:  "UnknownKindKept",
			input: `{"type":"poke","from_user":{"username":"frank"}}`,
			check: func(t *testing.T, p Payload) {
				assert.Equal(t, KindUnknown, p.Kind)
				assert.Equal(t, "frank", p.From.Username)
			},
		},
		{
			name:    "MalformedJSON",
			input:   `{"type":"follow",`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePayload(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}
