// Package api provides the small HTTP surface a visualizer talks to.
//
// Endpoints:
//   - GET /api/status - current run summary (run id, player, tick, rating)
//   - GET /ws         - WebSocket upgrade for the live event feed
//
// All responses are JSON. The server is read-only: the bot never takes
// commands from the visualizer side.
package api
