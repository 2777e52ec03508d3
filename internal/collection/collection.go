package collection

import (
	"crypto/sha1"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Anki separates note fields with the unit separator character.
const fieldSeparator = "\x1f"

// Collection is an open Anki collection database. All access is
// write-through: UpdateNote commits immediately, so a partially enriched
// note survives an interrupted run.
type Collection struct {
	db       *sql.DB
	path     string
	mediaDir string

	decks map[string]int64 // deck name -> deck id
	// note type id -> field name -> position in flds
	fields map[int64]map[string]int
}

// Open opens an existing collection database. The file must already exist;
// cardfill never creates collections.
func Open(path string) (*Collection, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("collection not found: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	c := &Collection{
		db:       db,
		path:     path,
		mediaDir: strings.TrimSuffix(path, filepath.Ext(path)) + ".media",
	}

	if err := c.loadSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

// loadSchema reads the deck and note type registries out of the col row.
func (c *Collection) loadSchema() error {
	var decksJSON, modelsJSON string
	err := c.db.QueryRow(`SELECT decks, models FROM col`).Scan(&decksJSON, &modelsJSON)
	if err != nil {
		return fmt.Errorf("failed to read collection metadata: %w", err)
	}

	var decks map[string]struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(decksJSON), &decks); err != nil {
		return fmt.Errorf("failed to parse deck registry: %w", err)
	}
	c.decks = make(map[string]int64, len(decks))
	for _, d := range decks {
		c.decks[d.Name] = d.ID
	}

	var models map[string]struct {
		ID   int64 `json:"id"`
		Flds []struct {
			Name string `json:"name"`
			Ord  int    `json:"ord"`
		} `json:"flds"`
	}
	if err := json.Unmarshal([]byte(modelsJSON), &models); err != nil {
		return fmt.Errorf("failed to parse note type registry: %w", err)
	}
	c.fields = make(map[int64]map[string]int, len(models))
	for _, m := range models {
		idx := make(map[string]int, len(m.Flds))
		for _, f := range m.Flds {
			idx[f.Name] = f.Ord
		}
		c.fields[m.ID] = idx
	}

	return nil
}

// FindNoteIDs resolves a deck query to note IDs in the store's default
// enumeration order. Only the `deck:Name` form is supported; richer query
// syntax belongs to Anki itself.
func (c *Collection) FindNoteIDs(query string) ([]int64, error) {
	deck, err := parseDeckQuery(query)
	if err != nil {
		return nil, err
	}
	did, ok := c.decks[deck]
	if !ok {
		return nil, fmt.Errorf("deck not found: %s", deck)
	}

	rows, err := c.db.Query(`SELECT DISTINCT nid FROM cards WHERE did = ?`, did)
	if err != nil {
		return nil, fmt.Errorf("failed to query deck cards: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetNote loads a note and maps its fields through the note type schema.
func (c *Collection) GetNote(id int64) (*Note, error) {
	var (
		guid, tags, flds string
		mid              int64
	)
	err := c.db.QueryRow(`SELECT guid, mid, tags, flds FROM notes WHERE id = ?`, id).
		Scan(&guid, &mid, &tags, &flds)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("note not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load note %d: %w", id, err)
	}

	idx, ok := c.fields[mid]
	if !ok {
		return nil, fmt.Errorf("note %d references unknown note type %d", id, mid)
	}
	for _, name := range RequiredFields {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("note type %d is missing field %q", mid, name)
		}
	}

	values := strings.Split(flds, fieldSeparator)
	note := &Note{ID: id, guid: guid, mid: mid, tags: tags}
	for name, ord := range idx {
		if ord < len(values) {
			note.setField(name, values[ord])
		} else {
			note.setField(name, "")
		}
	}
	return note, nil
}

// UpdateNote writes a note back to the database immediately.
func (c *Collection) UpdateNote(n *Note) error {
	idx, ok := c.fields[n.mid]
	if !ok {
		return fmt.Errorf("note %d references unknown note type %d", n.ID, n.mid)
	}

	values := make([]string, len(idx))
	for name, ord := range idx {
		v, err := n.Field(name)
		if err != nil {
			return err
		}
		values[ord] = v
	}
	flds := strings.Join(values, fieldSeparator)
	sortField := values[0]

	res, err := c.db.Exec(
		`UPDATE notes SET flds = ?, sfld = ?, csum = ?, mod = ?, usn = -1 WHERE id = ?`,
		flds, sortField, fieldChecksum(sortField), time.Now().Unix(), n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note %d: %w", n.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("note not found: %d", n.ID)
	}
	return nil
}

// MediaDir returns the collection's media directory. Anki keeps it as a
// sibling of the database file.
func (c *Collection) MediaDir() string {
	return c.mediaDir
}

// StoreMediaFile writes encoded audio bytes into the media directory.
func (c *Collection) StoreMediaFile(name string, data []byte) error {
	if err := os.MkdirAll(c.mediaDir, 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	path := filepath.Join(c.mediaDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return nil
}

// RemoveDuplicateCards deletes every non-first card in the deck along with
// notes left without any cards, recording graves so a later sync picks up
// the deletions. Returns the number of cards removed.
func (c *Collection) RemoveDuplicateCards(deck string) (int, error) {
	did, ok := c.decks[deck]
	if !ok {
		return 0, fmt.Errorf("deck not found: %s", deck)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id, nid FROM cards WHERE did = ? AND ord > 0`, did)
	if err != nil {
		return 0, fmt.Errorf("failed to query duplicate cards: %w", err)
	}
	var cardIDs, noteIDs []int64
	for rows.Next() {
		var cid, nid int64
		if err := rows.Scan(&cid, &nid); err != nil {
			rows.Close()
			return 0, err
		}
		cardIDs = append(cardIDs, cid)
		noteIDs = append(noteIDs, nid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, cid := range cardIDs {
		if _, err := tx.Exec(`DELETE FROM cards WHERE id = ?`, cid); err != nil {
			return 0, fmt.Errorf("failed to delete card %d: %w", cid, err)
		}
		if _, err := tx.Exec(`INSERT INTO graves (usn, oid, type) VALUES (-1, ?, 0)`, cid); err != nil {
			return 0, err
		}
	}
	for _, nid := range noteIDs {
		var remaining int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM cards WHERE nid = ?`, nid).Scan(&remaining); err != nil {
			return 0, err
		}
		if remaining > 0 {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, nid); err != nil {
			return 0, fmt.Errorf("failed to delete orphaned note %d: %w", nid, err)
		}
		if _, err := tx.Exec(`INSERT INTO graves (usn, oid, type) VALUES (-1, ?, 1)`, nid); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(cardIDs), nil
}

// Close flushes the collection modification time and releases the
// database handle. Safe to call from a defer on every exit path.
func (c *Collection) Close() error {
	if c.db == nil {
		return nil
	}
	if _, err := c.db.Exec(`UPDATE col SET mod = ?`, time.Now().UnixMilli()); err != nil {
		c.db.Close()
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// DeckNames returns the decks in the collection, sorted by name.
func (c *Collection) DeckNames() []string {
	names := make([]string, 0, len(c.decks))
	for name := range c.decks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseDeckQuery extracts the deck name from a `deck:Name` query,
// tolerating the quoting Anki search strings use.
func parseDeckQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	q = strings.Trim(q, `"`)
	if !strings.HasPrefix(q, "deck:") {
		return "", fmt.Errorf("unsupported query %q: only deck:Name queries are supported", query)
	}
	deck := strings.TrimPrefix(q, "deck:")
	deck = strings.Trim(deck, `"`)
	if deck == "" {
		return "", fmt.Errorf("empty deck name in query %q", query)
	}
	return deck, nil
}

// fieldChecksum computes the sort field checksum Anki maintains on the
// notes table: the first 4 bytes of the SHA1 of the field text.
func fieldChecksum(text string) int64 {
	sum := sha1.Sum([]byte(text))
	return int64(binary.BigEndian.Uint32(sum[:4]))
}
