// Package websocket streams live world updates to browser viewers.
//
// A Hub keeps the connected clients grouped by session ID. The game service
// calls BroadcastState after every change; the hub encodes the snapshot
// immediately and hands it to its event loop through a buffered queue, so a
// slow or absent viewer never stalls a command. Clients whose own send
// buffer fills up are disconnected.
//
// Outgoing messages are JSON:
//
//	{"type": "state", "session_id": "a1b2", "state": {...world state...}}
//	{"type": "event", "session_id": "a1b2", "event": "tree_grown", "data": {...}}
//
// Several queued messages may share one frame, separated by newlines.
// Viewers are read-only; anything they send is discarded.
package websocket
