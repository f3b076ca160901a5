// Package database provides SQLite-based storage for labelscan.
//
// ScanDB keeps one row per scan: the full Scan record as JSON plus the
// columns needed for listing, expiry and duplicate lookup (timestamp,
// saved flag, notes, fingerprint, score).
//
// Unsaved scans expire after model.ExpiryWindow. Expired rows are removed
// by CleanupExpired, which ListScans runs before every listing so history
// never shows a scan that has already lapsed.
//
// The driver is modernc.org/sqlite, so the binary stays CGO-free and the
// database is a single file under the XDG data directory.
package database
