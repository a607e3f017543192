package rulestore

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("rules")

// Snapshot is a BoltDB-backed cache of a compiled rule pack, so a CLI
// invocation with a large rule pack can skip re-parsing YAML on every
// run (§10.4). It serialises a RulePack — plain data, not the tree's
// pointer graph or any compiled nlp.Condition closure — keyed by the
// rule pack's source path; Compile always rebuilds the []nlp.Rule (and
// the tree, via nlp.Tree.Add) from that data, per the core tree's
// invariant that it is wholly determined by which rules were added
// (§3 invariant 5).
//
// The shape (Open/Close plus typed read/write methods) mirrors the
// teacher's cmd/mservice/storage.Storage interface, without that
// interface's machine-state semantics, which have no counterpart here.
type Snapshot struct {
	Debug bool

	filename string
	db       *bolt.DB
}

// NewSnapshot returns a Snapshot backed by filename. Call Open before
// using it.
func NewSnapshot(filename string) *Snapshot {
	return &Snapshot{filename: filename}
}

// Open opens (creating if necessary) the underlying BoltDB file.
func (s *Snapshot) Open() error {
	db, err := bolt.Open(s.filename, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}
	s.db = db
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
}

// Close closes the underlying BoltDB file.
func (s *Snapshot) Close() error {
	return s.db.Close()
}

func (s *Snapshot) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("rulestore.Snapshot "+format, args...)
	}
}

// Write stores pack under key, typically the rule pack's source path,
// so a later Read with the same key can serve it back without
// re-parsing YAML.
func (s *Snapshot) Write(key string, pack RulePack) error {
	js, err := json.Marshal(pack)
	if err != nil {
		return err
	}

	s.logf("Write %s (%d rules, %d bytes)", key, len(pack.Rules), len(js))

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), js)
	})
}

// Read returns the RulePack previously stored under key, or
// (zero RulePack, false, nil) if no snapshot exists for that key.
func (s *Snapshot) Read(key string) (RulePack, bool, error) {
	var js []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			js = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return RulePack{}, false, err
	}
	if js == nil {
		return RulePack{}, false, nil
	}

	var pack RulePack
	if err := json.Unmarshal(js, &pack); err != nil {
		return RulePack{}, false, fmt.Errorf("rulestore: corrupt snapshot for %q: %w", key, err)
	}

	s.logf("Read %s (%d rules)", key, len(pack.Rules))
	return pack, true, nil
}
