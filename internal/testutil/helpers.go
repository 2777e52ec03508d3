// Package testutil provides shared helpers for building throwaway Anki
// collection databases in tests.
package testutil

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// IDs used by every test collection.
const (
	TestDeckID  int64 = 1700000000001
	TestModelID int64 = 1700000000002
)

// TestFieldOrder is the field layout of the vocabulary note type in test
// collections.
var TestFieldOrder = []string{
	"word", "sentence", "explanation",
	"word_audio", "sentence_audio", "explanation_audio",
}

// CreateTestCollection creates a minimal collection database containing a
// single deck and the vocabulary note type, and returns its path.
func CreateTestCollection(t *testing.T, dir, deck string) string {
	t.Helper()

	path := filepath.Join(dir, "collection.anki2")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	schema := []string{
		`CREATE TABLE col (
			id integer PRIMARY KEY,
			crt integer NOT NULL,
			mod integer NOT NULL,
			scm integer NOT NULL,
			ver integer NOT NULL,
			dty integer NOT NULL,
			usn integer NOT NULL,
			ls integer NOT NULL,
			conf text NOT NULL,
			models text NOT NULL,
			decks text NOT NULL,
			dconf text NOT NULL,
			tags text NOT NULL
		)`,
		`CREATE TABLE notes (
			id integer PRIMARY KEY,
			guid text NOT NULL,
			mid integer NOT NULL,
			mod integer NOT NULL,
			usn integer NOT NULL,
			tags text NOT NULL,
			flds text NOT NULL,
			sfld text NOT NULL,
			csum integer NOT NULL,
			flags integer NOT NULL,
			data text NOT NULL
		)`,
		`CREATE TABLE cards (
			id integer PRIMARY KEY,
			nid integer NOT NULL,
			did integer NOT NULL,
			ord integer NOT NULL,
			mod integer NOT NULL,
			usn integer NOT NULL,
			type integer NOT NULL,
			queue integer NOT NULL,
			due integer NOT NULL,
			ivl integer NOT NULL,
			factor integer NOT NULL,
			reps integer NOT NULL,
			lapses integer NOT NULL,
			left integer NOT NULL,
			odue integer NOT NULL,
			odid integer NOT NULL,
			flags integer NOT NULL,
			data text NOT NULL
		)`,
		`CREATE TABLE graves (
			usn integer NOT NULL,
			oid integer NOT NULL,
			type integer NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to create test schema: %v", err)
		}
	}

	flds := make([]map[string]interface{}, len(TestFieldOrder))
	for i, name := range TestFieldOrder {
		flds[i] = map[string]interface{}{"name": name, "ord": i}
	}
	models := map[string]interface{}{
		fmt.Sprintf("%d", TestModelID): map[string]interface{}{
			"id":   TestModelID,
			"name": "Vocabulary",
			"flds": flds,
		},
	}
	decks := map[string]interface{}{
		fmt.Sprintf("%d", TestDeckID): map[string]interface{}{
			"id":   TestDeckID,
			"name": deck,
		},
	}
	modelsJSON, _ := json.Marshal(models)
	decksJSON, _ := json.Marshal(decks)

	now := time.Now().Unix()
	_, err = db.Exec(`INSERT INTO col VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		1, now, now*1000, now*1000, 11, 0, 0, 0,
		"{}", string(modelsJSON), string(decksJSON), "{}", "{}")
	if err != nil {
		t.Fatalf("Failed to insert collection metadata: %v", err)
	}

	return path
}

// AddTestNote inserts a note with the given field values plus one card in
// the test deck. Missing fields default to empty.
func AddTestNote(t *testing.T, dbPath string, id int64, fields map[string]string) {
	t.Helper()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	values := make([]string, len(TestFieldOrder))
	for i, name := range TestFieldOrder {
		values[i] = fields[name]
	}
	flds := strings.Join(values, "\x1f")

	_, err = db.Exec(`INSERT INTO notes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, fmt.Sprintf("guid%d", id), TestModelID, time.Now().Unix(), 0, "",
		flds, values[0], 0, 0, "")
	if err != nil {
		t.Fatalf("Failed to insert test note: %v", err)
	}

	AddTestCard(t, dbPath, id*10, id, 0)
}

// AddTestCard inserts a card for a note with the given template ordinal.
func AddTestCard(t *testing.T, dbPath string, cardID, noteID int64, ord int) {
	t.Helper()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO cards VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cardID, noteID, TestDeckID, ord, time.Now().Unix(), 0,
		0, 0, 0, 0, 2500, 0, 0, 0, 0, 0, 0, "")
	if err != nil {
		t.Fatalf("Failed to insert test card: %v", err)
	}
}

// ReadNoteFields reads a note's raw field values back out of the database.
func ReadNoteFields(t *testing.T, dbPath string, id int64) map[string]string {
	t.Helper()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	var flds string
	if err := db.QueryRow(`SELECT flds FROM notes WHERE id = ?`, id).Scan(&flds); err != nil {
		t.Fatalf("Failed to read test note %d: %v", id, err)
	}

	values := strings.Split(flds, "\x1f")
	fields := make(map[string]string, len(TestFieldOrder))
	for i, name := range TestFieldOrder {
		if i < len(values) {
			fields[name] = values[i]
		}
	}
	return fields
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}
