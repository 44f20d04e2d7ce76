// Package journal records per-item outcomes in a bbolt file so an
// interrupted or partially failed run can be re-run with --resume,
// skipping items that already completed.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/happyfish100/fdfs-batch/model"
)

const itemsBucket = "items"

// ErrNotRecorded means the journal has no entry for the item.
var ErrNotRecorded = errors.New("item not recorded")

// Entry is one journaled item outcome.
type Entry struct {
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
	ResultID string `json:"result_id,omitempty"`
}

// Journal is a bbolt-backed outcome log. Entries are keyed by list
// position and identifier, so duplicated identifiers journal
// independently.
type Journal struct {
	db *bbolt.DB
}

// Open opens or creates the journal file.
func Open(path string) (*Journal, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot open journal %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(itemsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create journal bucket: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func itemKey(index int, id string) []byte {
	return []byte(fmt.Sprintf("%08d|%s", index, id))
}

// Record journals the item's final outcome.
func (j *Journal) Record(item *model.WorkItem) error {
	entry := Entry{
		Status:   item.Status.String(),
		Detail:   item.Detail,
		ResultID: item.ResultID,
	}
	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(itemsBucket)).Put(itemKey(item.Index, item.ID), val)
	})
}

// Lookup returns the journaled entry for the item position, or
// ErrNotRecorded.
func (j *Journal) Lookup(index int, id string) (*Entry, error) {
	var entry *Entry
	err := j.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket([]byte(itemsBucket)).Get(itemKey(index, id))
		if val == nil {
			return ErrNotRecorded
		}
		entry = &Entry{}
		return json.Unmarshal(val, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Succeeded reports whether the item completed successfully in a
// previous run.
func (j *Journal) Succeeded(index int, id string) bool {
	entry, err := j.Lookup(index, id)
	if err != nil {
		return false
	}
	return entry.Status == model.StatusSucceeded.String()
}
