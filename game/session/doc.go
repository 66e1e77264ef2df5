// Package session keeps world sessions in memory and optionally persists
// them.
//
// Manager stores sessions under case-insensitive IDs. Generated IDs are four
// hex characters; caller supplied IDs may use letters, digits, dashes and
// underscores. Every session owns its own engine, so two sessions never
// share a world.
//
// Persistence is pluggable through SessionPersistence. FilePersistence writes
// one JSON document per session, optionally zstd-compressed, and
// SQLPersistence stores the same document in a gorm-managed table (SQLite or
// PostgreSQL). Both rebuild the engine from the named world config and then
// load the saved world state into it, so a restored session continues with
// the same grid, machines, wood and history.
//
//	persistence, _ := session.NewFilePersistence("sessions", configs, session.WithCompression())
//	manager := session.NewManagerWithPersistence(persistence)
//	_ = manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Sessions idle for longer than a cutoff can be dropped from memory with
// CleanupExpiredSessions; persisted copies stay on disk.
package session
