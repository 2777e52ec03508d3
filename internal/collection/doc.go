// Package collection provides read/write access to an Anki collection
// database: note lookup by deck, write-through field updates, and media
// file storage. It only touches the handful of tables enrichment needs
// and leaves scheduling data alone.
package collection
