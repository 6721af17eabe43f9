package notewirews

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tj/assert"
)

func TestIngressHandler(t *testing.T) {
	t.Run("broadcast completed", func(t *testing.T) {
		store := newFakeStore("c1", "c2")
		pusher := newFakePusher(map[string]PushStatus{"c2": PushGone})
		handler := IngressHandler(broadcaster(store, pusher))

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/broadcast", strings.NewReader(`{"type":"comment.created","data":{"id":"42"}}`))
		handler.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{
			"message": "Broadcast completed",
			"results": {"totalConnections": 2, "sent": 1, "failed": 0, "staleRemoved": 1}
		}`, w.Body.String())
	})

	t.Run("invalid json body", func(t *testing.T) {
		handler := IngressHandler(broadcaster(newFakeStore(), newFakePusher(nil)))

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/broadcast", strings.NewReader("not json"))
		handler.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
	})

	t.Run("missing data", func(t *testing.T) {
		store := newFakeStore("c1")
		pusher := newFakePusher(nil)
		handler := IngressHandler(broadcaster(store, pusher))

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/broadcast", strings.NewReader(`{"type":"comment.created"}`))
		handler.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		assert.Equal(t, 0, pusher.attempts())
	})

	t.Run("storage failure", func(t *testing.T) {
		store := newFakeStore("c1")
		store.scanErr = fmt.Errorf("scan failed")
		handler := IngressHandler(broadcaster(store, newFakePusher(nil)))

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/broadcast", strings.NewReader(`{"type":"test","data":{}}`))
		handler.ServeHTTP(w, req)

		assert.Equal(t, 500, w.Code)
	})
}
