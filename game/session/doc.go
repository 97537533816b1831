// Package session keeps the running puzzles of a server in memory.
//
// A Manager maps 4-character hex IDs (crypto/rand, retried on collision) to
// service.Session values. IDs compare case-insensitively, so "A1B2" and
// "a1b2" name the same puzzle. Every session wraps its own
// engine.PuzzleSession and therefore its own random source and counters.
//
//	mgr := session.NewManager()
//	sess, err := mgr.Create("", pack, images)
//	if err != nil {
//		return err
//	}
//	err = sess.Engine.StartLevel()
//
// NewManagerWithSeed gives the n-th created session the seed base+n, which
// is what the server's -seed flag uses for reproducible scatter.
// CleanupExpiredSessions is called periodically to drop idle puzzles.
// Nothing is written to disk.
package session
