package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	buildsBucket = "builds"
	depsBucket   = "deps"
)

// BuildRecord is the metadata journaled for one compilation. It feeds cache
// statistics only; artifact existence stays the sole hit signal.
type BuildRecord struct {
	// Script is the resolved source path.
	Script string `json:"script"`

	// Digest is the content digest the artifact is keyed by.
	Digest string `json:"digest"`

	// Artifact is the committed artifact path.
	Artifact string `json:"artifact"`

	// EntryClass is the derived runnable entry class.
	EntryClass string `json:"entry_class"`

	// Timestamp when the build completed.
	Timestamp time.Time `json:"timestamp"`

	// DurationMillis is the compiler wall time in milliseconds.
	DurationMillis int64 `json:"duration_ms"`
}

// Journal stores build metadata and resolved classpaths in BoltDB.
type Journal struct {
	db *bbolt.DB
}

// OpenJournal opens or creates the journal database.
func OpenJournal(path string) (*Journal, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{buildsBucket, depsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal buckets: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}

	return nil
}

// RecordBuild stores a build record keyed by (script base name, digest).
func (j *Journal) RecordBuild(rec BuildRecord) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(buildsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		return b.Put([]byte(rec.Script+"."+rec.Digest), data)
	})
}

// BuildCount returns the number of journaled builds.
func (j *Journal) BuildCount() (int, error) {
	var count int

	err := j.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(buildsBucket)).Stats().KeyN
		return nil
	})

	return count, err
}

// Builds returns all journaled build records.
func (j *Journal) Builds() ([]BuildRecord, error) {
	var records []BuildRecord

	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(buildsBucket)).ForEach(func(_, v []byte) error {
			var rec BuildRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}

			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Classpath returns the cached resolver classpath for a coordinate-set
// digest, or "" on a miss.
func (j *Journal) Classpath(key string) (string, error) {
	var classpath string

	err := j.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket([]byte(depsBucket)).Get([]byte(key)); data != nil {
			classpath = string(data)
		}

		return nil
	})

	return classpath, err
}

// PutClasspath caches a resolved classpath for a coordinate-set digest.
func (j *Journal) PutClasspath(key, classpath string) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(depsBucket)).Put([]byte(key), []byte(classpath))
	})
}
