// Package session keeps the registry of live puzzle sessions.
//
// Manager maps case-insensitive session IDs to service.Session values, each
// owning its own controller.Controller. IDs are generated as 4 hex characters
// when the caller does not supply one.
//
// Every controller the manager creates or restores receives the
// controller.Option values given to NewManager, so tests can swap the ticker
// and random source for the whole registry.
//
// Persistence:
//
// FilePersistence stores one JSON file per session holding the controller's
// PersistedState. Sessions not in memory are restored on first access, and a
// Playing session resumes its timer when it comes back. Deleting a session,
// or expiring it with CleanupExpiredSessions, releases the timer; expiry saves
// the session first. At startup, stored sessions older than the max age are
// deleted rather than loaded.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(24 * time.Hour); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	sess, err := manager.Create("", puzzle, controller.Settings{GridSize: 4})
package session
