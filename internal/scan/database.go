package scan

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	scanBucketName = "scans"
	tripBucketName = "trips"
)

// DB defines the interface for history database operations.
type DB interface {
	// SaveScan saves a scan to the database
	SaveScan(scan *Scan) error

	// GetScan retrieves a scan by ID
	GetScan(id string) (*Scan, error)

	// ListScans returns all scans
	ListScans() ([]*Scan, error)

	// DeleteScan removes a scan from the database
	DeleteScan(id string) error

	// SaveTrip saves a trip to the database
	SaveTrip(trip *Trip) error

	// GetTrip retrieves a trip by ID
	GetTrip(id string) (*Trip, error)

	// ListTrips returns all trips
	ListTrips() ([]*Trip, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(scanBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(tripBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveScan saves a scan to the database.
func (b *BoltDB) SaveScan(scan *Scan) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data, err := json.Marshal(scan)
		if err != nil {
			return fmt.Errorf("marshaling scan: %w", err)
		}
		return bucket.Put([]byte(scan.ID), data)
	})
}

// GetScan retrieves a scan by ID.
func (b *BoltDB) GetScan(id string) (*Scan, error) {
	var scan *Scan
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("scan not found: %s", id)
		}
		return json.Unmarshal(data, &scan)
	})
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// ListScans returns all scans.
func (b *BoltDB) ListScans() ([]*Scan, error) {
	scans := make([]*Scan, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var scan Scan
			if err := json.Unmarshal(v, &scan); err != nil {
				return fmt.Errorf("unmarshaling scan: %w", err)
			}
			scans = append(scans, &scan)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return scans, nil
}

// DeleteScan removes a scan from the database.
func (b *BoltDB) DeleteScan(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scanBucketName))
		return bucket.Delete([]byte(id))
	})
}

// SaveTrip saves a trip to the database.
func (b *BoltDB) SaveTrip(trip *Trip) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(tripBucketName))
		data, err := json.Marshal(trip)
		if err != nil {
			return fmt.Errorf("marshaling trip: %w", err)
		}
		return bucket.Put([]byte(trip.ID), data)
	})
}

// GetTrip retrieves a trip by ID.
func (b *BoltDB) GetTrip(id string) (*Trip, error) {
	var trip *Trip
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(tripBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("trip not found: %s", id)
		}
		return json.Unmarshal(data, &trip)
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// ListTrips returns all trips.
func (b *BoltDB) ListTrips() ([]*Trip, error) {
	trips := make([]*Trip, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(tripBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var trip Trip
			if err := json.Unmarshal(v, &trip); err != nil {
				return fmt.Errorf("unmarshaling trip: %w", err)
			}
			trips = append(trips, &trip)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// Close closes the database connection.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
