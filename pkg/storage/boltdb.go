package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/specfleet/foreman/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketPlans = []byte("plans")
	bucketSpecs = []byte("specs")
)

// specKey builds the composite spec key. The zero-padded index keeps specs
// ordered by index under a cursor scan and the layout stable once chosen.
func specKey(planID string, specIndex int) []byte {
	return []byte(fmt.Sprintf("%s/%06d", planID, specIndex))
}

func specPrefix(planID string) []byte {
	return []byte(planID + "/")
}

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "foreman.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketPlans, bucketSpecs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// LoadPlan reads a plan record by ID
func (s *BoltStore) LoadPlan(planID string) (*types.Plan, error) {
	var plan types.Plan
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPlans)
		data := b.Get([]byte(planID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &plan)
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// LoadSpecs reads all specs of a plan, ordered by spec index
func (s *BoltStore) LoadSpecs(planID string) ([]*types.Spec, error) {
	specs := []*types.Spec{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSpecs).Cursor()
		prefix := specPrefix(planID)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var spec types.Spec
			if err := json.Unmarshal(v, &spec); err != nil {
				return err
			}
			specs = append(specs, &spec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return specs, nil
}

// CreatePlanAtomic writes the plan and its specs in a single transaction,
// failing with ErrAlreadyExists if the plan ID is already present.
func (s *BoltStore) CreatePlanAtomic(plan *types.Plan, specs []*types.Spec) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		pb := tx.Bucket(bucketPlans)
		if pb.Get([]byte(plan.PlanID)) != nil {
			return ErrAlreadyExists
		}

		data, err := json.Marshal(plan)
		if err != nil {
			return err
		}
		if err := pb.Put([]byte(plan.PlanID), data); err != nil {
			return err
		}

		sb := tx.Bucket(bucketSpecs)
		for _, spec := range specs {
			data, err := json.Marshal(spec)
			if err != nil {
				return err
			}
			if err := sb.Put(specKey(plan.PlanID, spec.SpecIndex), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// RunTransaction runs body inside a single read-write transaction. BoltDB
// serializes writers, so the body observes a consistent snapshot and never
// races another transaction; an error from body aborts without committing.
func (s *BoltStore) RunTransaction(body func(txn Txn) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return body(&boltTxn{tx: tx})
	})
}

// boltTxn adapts a bolt transaction to the Txn interface
type boltTxn struct {
	tx *bolt.Tx
}

func (t *boltTxn) Plan(planID string) (*types.Plan, error) {
	data := t.tx.Bucket(bucketPlans).Get([]byte(planID))
	if data == nil {
		return nil, ErrNotFound
	}
	var plan types.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (t *boltTxn) Spec(planID string, specIndex int) (*types.Spec, error) {
	data := t.tx.Bucket(bucketSpecs).Get(specKey(planID, specIndex))
	if data == nil {
		return nil, ErrNotFound
	}
	var spec types.Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (t *boltTxn) PutPlan(plan *types.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return t.tx.Bucket(bucketPlans).Put([]byte(plan.PlanID), data)
}

func (t *boltTxn) PutSpec(planID string, spec *types.Spec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	return t.tx.Bucket(bucketSpecs).Put(specKey(planID, spec.SpecIndex), data)
}
