// Package websocket streams bridge events to visualizer clients.
//
// The package uses a hub-and-spoke model: a central Hub owns the set of
// connections and fans every bridge message out to all of them. Each client
// connection is handled by a dedicated goroutine pair managing reading,
// writing and cleanup.
//
// Message Protocol:
//
// Outgoing messages are the bridge messages JSON-encoded verbatim:
// {"tag": "map_dynamic", "payload": {...}}. Messages already queued for a
// client when a write starts go out in the same WebSocket frame, one JSON
// object per line. Incoming messages are ignored; the visualizer is strictly
// a consumer.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	go hub.Feed(ctx, queue)
//
//	mux.HandleFunc("/ws", hub.ServeWS)
package websocket
