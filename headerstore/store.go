// SPDX-License-Identifier: GPL-3.0-or-later

// Package headerstore persists newsgroup information and overview records
// in a bbolt database, and fetches new headers with [Forward].
package headerstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"
	"time"

	"github.com/bassosimone/nntp"
	"github.com/gofiber/storage/bbolt"
)

const (
	// DefaultBucket is the bbolt bucket holding all the keys.
	DefaultBucket = "nntp_headers"

	// DefaultTimeout bounds the wait for the database file lock.
	DefaultTimeout = time.Second
)

// Store persists [nntp.GroupInfo] and [nntp.OverviewRecord] values.
//
// Keys are "group/<name>", "last/<name>" and "article/<name>/<number>" with
// the number zero-padded so that keys sort numerically. Values are gob
// encoded, except the last article number which is decimal text.
//
// A [*Store] is safe for concurrent use: each operation is a bbolt transaction.
type Store struct {
	db *bbolt.Storage
}

// Open opens or creates the database at path.
func Open(path string) (store *Store, err error) {
	// bbolt.New panics when the database cannot be opened
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("headerstore: open %s: %v", path, r)
		}
	}()
	db := bbolt.New(bbolt.Config{
		Database: path,
		Bucket:   DefaultBucket,
		Timeout:  DefaultTimeout,
	})
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGroup stores the group information, replacing any previous value.
func (s *Store) SaveGroup(info nntp.GroupInfo) error {
	return s.setGob(groupKey(info.Name), info)
}

// LoadGroup returns the stored group information.
func (s *Store) LoadGroup(name string) (nntp.GroupInfo, bool, error) {
	var info nntp.GroupInfo
	found, err := s.getGob(groupKey(name), &info)
	return info, found, err
}

// SaveRecords stores the overview records of a group and raises the last
// article number to the highest record number.
func (s *Store) SaveRecords(group string, records []nntp.OverviewRecord) error {
	var highest uint64
	for idx := range records {
		record := &records[idx]
		if err := s.setGob(articleKey(group, record.Number), record); err != nil {
			return err
		}
		highest = max(highest, record.Number)
	}
	if len(records) == 0 {
		return nil
	}
	return s.RaiseLastArticle(group, highest)
}

// Record returns the stored overview record of an article.
func (s *Store) Record(group string, number uint64) (nntp.OverviewRecord, bool, error) {
	var record nntp.OverviewRecord
	found, err := s.getGob(articleKey(group, number), &record)
	return record, found, err
}

// LastArticle returns the highest article number fetched for the group.
func (s *Store) LastArticle(group string) (uint64, bool, error) {
	value, err := s.db.Get(lastKey(group))
	if err != nil || value == nil {
		return 0, false, err
	}
	number, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("headerstore: corrupt last article for %s: %w", group, err)
	}
	return number, true, nil
}

// RaiseLastArticle sets the last article number of the group unless the
// stored one is already higher.
func (s *Store) RaiseLastArticle(group string, number uint64) error {
	current, found, err := s.LastArticle(group)
	if err != nil {
		return err
	}
	if found && current >= number {
		return nil
	}
	return s.db.Set(lastKey(group), []byte(strconv.FormatUint(number, 10)), 0)
}

func (s *Store) setGob(key string, value any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}
	return s.db.Set(key, buf.Bytes(), 0)
}

func (s *Store) getGob(key string, value any) (bool, error) {
	data, err := s.db.Get(key)
	if err != nil || data == nil {
		return false, err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(value); err != nil {
		return false, err
	}
	return true, nil
}

func groupKey(name string) string {
	return "group/" + name
}

func lastKey(name string) string {
	return "last/" + name
}

func articleKey(name string, number uint64) string {
	return fmt.Sprintf("article/%s/%020d", name, number)
}
