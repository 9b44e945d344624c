package notify

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedbrasilia/enroll-api/pkg/config"
)

func TestChatObserverPostsToAllWebhooks(t *testing.T) {
	var contents [2]atomic.Value
	first := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		contents[0].Store(payload["content"])
	})
	second := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		contents[1].Store(payload["content"])
	})

	observer := NewChatObserver(config.ObserverConfig{
		WebhookURLs: []string{first.URL, second.URL},
	}, nil)

	observer.StageChanged("txn-1", "registered", "student 987")

	require.Eventually(t, func() bool {
		return contents[0].Load() != nil && contents[1].Load() != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "[txn-1] registered | student 987", contents[0].Load())
	assert.Equal(t, contents[0].Load(), contents[1].Load())
}

func TestChatObserverNoWebhooksLogsOnly(t *testing.T) {
	observer := NewChatObserver(config.ObserverConfig{}, nil)
	// must not panic or block
	observer.StageChanged("txn-1", "done", "")
}
