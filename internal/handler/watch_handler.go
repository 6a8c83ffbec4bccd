package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/infra/observability"
	"github.com/zaikaapp/session-bfa-go/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The session surface is same-origin behind the app's gateway.
		return true
	},
}

const watcherPingInterval = 30 * time.Second

// watchSessionHandler streams session snapshots to a browser tab over a
// websocket. The tab gets the current state on connect and a fresh snapshot
// on every change, which is how other tabs' mutations become visible
// without polling.
func watchSessionHandler(ctrl *service.Controller, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("watch: upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		watcherID := uuid.NewString()
		metrics.WatcherConnected()
		defer metrics.WatcherDisconnected()
		logger.Info("watcher connected", zap.String("watcher_id", watcherID))
		defer logger.Info("watcher disconnected", zap.String("watcher_id", watcherID))

		states, cancel := ctrl.Watch()
		defer cancel()

		// Reads are discarded, but the read loop is what notices a closed
		// peer and ends the handler.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := conn.WriteJSON(ctrl.State()); err != nil {
			return
		}

		pings := time.NewTicker(watcherPingInterval)
		defer pings.Stop()

		for {
			select {
			case state, ok := <-states:
				if !ok {
					return
				}
				if err := conn.WriteJSON(state); err != nil {
					return
				}
			case <-pings.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
