// Package history keeps a persistent log of classification results in
// BadgerDB, one msgpack-encoded entry per completed inference.
package history

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/realtime-ai/audioscene/pkg/classifier"
)

// Key layout:
//
//	scene/{session}/{ts_ns zero-padded}  → msgpack-encoded Entry
//
// Zero padding keeps lexicographic order equal to chronological order within
// a session.
const keyPrefix = "scene/"

// ErrInvalidOptions is returned by Open for an unusable configuration.
var ErrInvalidOptions = errors.New("history: invalid options")

// Prediction is a stored ranked label.
type Prediction struct {
	Label      string  `msgpack:"label"`
	Confidence float32 `msgpack:"conf"`
}

// Entry is one stored classification.
type Entry struct {
	SessionID   string       `msgpack:"session"`
	At          int64        `msgpack:"at"`
	Scene       string       `msgpack:"scene,omitempty"`
	Mode        string       `msgpack:"mode,omitempty"`
	InferenceMs int64        `msgpack:"ms,omitempty"`
	Predictions []Prediction `msgpack:"preds"`
}

// Time returns At as a time.Time.
func (e Entry) Time() time.Time {
	return time.Unix(0, e.At)
}

// NewEntry converts a classification result.
func NewEntry(sessionID string, at time.Time, result *classifier.Result) Entry {
	e := Entry{SessionID: sessionID, At: at.UnixNano(), Scene: result.SceneName()}
	if result == nil {
		return e
	}
	e.Mode = result.NoiseMode
	for _, p := range result.Predictions {
		e.Predictions = append(e.Predictions, Prediction{Label: p.Label, Confidence: p.Confidence})
	}
	return e
}

// Options configures the store.
type Options struct {
	// Dir is the BadgerDB directory. Required unless InMemory, ignored otherwise.
	Dir string
	// InMemory keeps everything in memory.
	InMemory bool
}

// Store is a BadgerDB-backed history log.
type Store struct {
	db *badger.DB
}

// Open opens or creates the store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, fmt.Errorf("%w: Dir is required for on-disk mode", ErrInvalidOptions)
	}
	var dbOpts badger.Options
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbOpts = badger.DefaultOptions(opts.Dir)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return &Store{db: db}, nil
}

// Append stores e.
func (s *Store) Append(_ context.Context, e Entry) error {
	if e.SessionID == "" {
		return fmt.Errorf("%w: entry without session", ErrInvalidOptions)
	}
	data, err := msgpack.Marshal(&e)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(e.SessionID, e.At), data)
	})
}

// List returns entries in chronological order within each session. An empty
// sessionID lists every session. limit <= 0 returns everything; otherwise
// only the most recent limit entries are kept.
func (s *Store) List(_ context.Context, sessionID string, limit int) ([]Entry, error) {
	prefix := []byte(keyPrefix)
	if sessionID != "" {
		prefix = []byte(keyPrefix + sessionID + "/")
	}

	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var e Entry
			if err := msgpack.Unmarshal(val, &e); err != nil {
				return fmt.Errorf("failed to decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, e)
			if limit > 0 && len(out) > limit {
				out = out[1:]
			}
		}
		return nil
	})
	return out, err
}

// Sessions lists the distinct session ids with stored entries.
func (s *Store) Sessions(_ context.Context) ([]string, error) {
	prefix := []byte(keyPrefix)
	var sessions []string
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		last := ""
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rest := strings.TrimPrefix(string(it.Item().Key()), keyPrefix)
			session, _, ok := strings.Cut(rest, "/")
			if ok && session != last {
				sessions = append(sessions, session)
				last = session
			}
		}
		return nil
	})
	return sessions, err
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func entryKey(sessionID string, at int64) []byte {
	ts := strconv.FormatInt(at, 10)
	if pad := 20 - len(ts); pad > 0 {
		ts = strings.Repeat("0", pad) + ts
	}
	return []byte(keyPrefix + sessionID + "/" + ts)
}

// badgerLogger routes badger warnings and errors to the standard logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{})   { log.Printf("[Badger] ERROR: "+f, v...) }
func (badgerLogger) Warningf(f string, v ...interface{}) { log.Printf("[Badger] WARN: "+f, v...) }
func (badgerLogger) Infof(string, ...interface{})        {}
func (badgerLogger) Debugf(string, ...interface{})       {}
