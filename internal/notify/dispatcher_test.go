package notify

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frameFor builds a stream frame with the payload double-encoded, the way
// the server sends it
func frameFor(t *testing.T, id int64, isRead bool, payloadJSON string) []byte {
	t.Helper()
	message, err := json.Marshal(payloadJSON)
	require.NoError(t, err)
	return []byte(fmt.Sprintf(
		`{"type":"notification","notification":{"id":%d,"message":%s,"is_read":%t,"created_at":"2026-02-01T10:00:00Z"}}`,
		id, message, isRead,
	))
}

func TestDispatcherHandleFrame(t *testing.T) {
	t.Run("IngestsNotification", func(t *testing.T) {
		cache := NewCache()
		d := NewDispatcher(cache, nil)

		d.HandleFrame(frameFor(t, 1, false, `{"type":"like","from_user":{"username":"alice"},"post_id":5}`))

		assert.Equal(t, 1, cache.Unread())
		recent := cache.Recent()
		require.Len(t, recent, 1)
		assert.Equal(t, KindLike, recent[0].Payload.Kind)
		assert.Equal(t, int64(5), recent[0].Payload.PostID)
	})

	t.Run("MalformedEnvelopeDropped", func(t *testing.T) {
		cache := NewCache()
		d := NewDispatcher(cache, nil)

		d.HandleFrame([]byte(`{not json`))
		// dispatcher stays usable afterwards
		d.HandleFrame(frameFor(t, 2, false, `{"type":"follow","from_user":{"username":"bob"}}`))

		assert.Equal(t, 1, cache.Unread())
	})

	t.Run("MalformedPayloadDropsSingleNotification", func(t *testing.T) {
		cache := NewCache()
		d := NewDispatcher(cache, nil)

		d.HandleFrame(frameFor(t, 3, false, `{"type":"follow",`))
		d.HandleFrame(frameFor(t, 4, false, `{"type":"follow","from_user":{"username":"carol"}}`))

		assert.Equal(t, 1, cache.Unread())
		require.Len(t, cache.Recent(), 1)
		assert.Equal(t, int64(4), cache.Recent()[0].ID)
	})

	t.Run("NonNotificationFrameIgnored", func(t *testing.T) {
		cache := NewCache()
		d := NewDispatcher(cache, nil)

		d.HandleFrame([]byte(`{"type":"ping"}`))
		d.HandleFrame([]byte(`{"type":"notification"}`)) // missing body

		assert.Equal(t, 0, cache.Unread())
	})

	t.Run("CallEmitsSideChannelAlert", func(t *testing.T) {
		cache := NewCache()
		d := NewDispatcher(cache, nil)

		d.HandleFrame(frameFor(t, 5, false, `{"type":"call","from_user":{"username":"dave"},"room_id":2,"call_id":8,"call_status":"ongoing"}`))

		select {
		case alert := <-d.Calls():
			assert.Equal(t, "dave", alert.From.Username)
			assert.Equal(t, int64(2), alert.RoomID)
			assert.Equal(t, int64(8), alert.CallID)
			assert.Equal(t, "ongoing", alert.CallStatus)
		default:
			t.Fatal("expected a call alert on the side channel")
		}

		// the call notification is also cached like any other
		assert.Equal(t, 1, cache.Unread())
	})

	t.Run("CallAlertDroppedWhenBufferFull", func(t *testing.T) {
		cache := NewCache()
		d := NewDispatcher(cache, nil)

		for i := int64(0); i < callAlertBuffer+3; i++ {
			d.HandleFrame(frameFor(t, 10+i, false,
				fmt.Sprintf(`{"type":"call","from_user":{"username":"dave"},"room_id":%d,"call_id":%d,"call_status":"ongoing"}`, i, i)))
		}

		// only the buffered alerts survive, nothing blocked
		drained := 0
		for {
			select {
			case <-d.Calls():
				drained++
				continue
			default:
			}
			break
		}
		assert.Equal(t, callAlertBuffer, drained)
	})
}
