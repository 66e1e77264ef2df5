// Package api exposes the world service over HTTP.
//
// Routes (all JSON):
//
//	GET    /health                              liveness
//	GET    /api/configs                         list world configs
//	POST   /api/configs                         save a world config
//	GET    /api/configs/{name}                  fetch one config
//	POST   /api/sessions                        create a session {"config_id": "quarry"}
//	GET    /api/sessions                        list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//	GET    /api/sessions/unified                per-session summaries (?sessionIds=a,b or ?configName=x)
//	GET    /api/sessions/{id}                   session info with world state
//	DELETE /api/sessions/{id}                   delete a session
//	GET    /api/sessions/{id}/state             world state
//	POST   /api/sessions/{id}/actions           run one command or a batch
//	POST   /api/sessions/{id}/reset             rebuild the world from its config
//	GET    /api/sessions/{id}/history           action history (?page&limit&order&filter=all|success|failed)
//	GET    /api/sessions/{id}/cells/{x}/{y}     occupants and predicates of one cell
//	GET    /api/sessions/{id}/overlaps          machines sharing a cell
//	GET    /metrics                             Prometheus metrics, when enabled
//	GET    /ws?session={id}                     live world updates
//
// An action body is a single command,
//
//	{"action": "move_vehicle", "machine": 1, "direction": "right"}
//
// or a batch run in order, stopping at the first failure unless
// stop_on_failure is false:
//
//	{"commands": [{"action": "load", "machine": 1, "direction": "right"}, ...]}
//
// Either form accepts "reset": true to rebuild the world first.
//
// A command the rules refuse is still answered with 200; the body carries
// success=false with a failure category and reason. Malformed input gets
// 400, unknown sessions or configs 404, and clients over the optional per-IP
// rate limit 429.
package api
