// Package leaderboard persists the fastest completed games.
//
// A leaderboard keeps at most MaxEntries entries ordered by elapsed time,
// fastest first. Recording a score inserts it, re-sorts, truncates and
// persists in one step. Loading never fails on missing data: a store that
// has never been written returns an empty list.
//
// Backends:
//   - FileStore: a JSON array in a single file, tolerant of corrupt content
//   - SQLiteStore: modernc.org/sqlite, for a single server
//   - PostgresStore: pgx connection pool, for servers sharing one board
//
// Open picks a backend from a DSN string:
//
//	store, err := leaderboard.Open(ctx, "sqlite:data/leaderboard.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.RecordScore(ctx, leaderboard.Entry{Name: "Mina", ElapsedSeconds: 95, MoveCount: 140})
package leaderboard
