package store

import (
	"strconv"

	"github.com/tidwall/buntdb"

	"github.com/olitheolix/azrael-sub000/cmn/cos"
)

// SetCounter sets the named counter to value unconditionally.
func (s *Store) SetCounter(name string, value uint64) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(cos.CounterKey(name), strconv.FormatUint(value, 10), nil)
		return err
	})
	return wrapStoreErr("store.SetCounter", err)
}

// GetCounter returns the named counter's current value, or 0 if unset.
func (s *Store) GetCounter(name string) (uint64, error) {
	var v uint64
	err := s.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(cos.CounterKey(name))
		if err == buntdb.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		v, err = strconv.ParseUint(raw, 10, 64)
		return err
	})
	if err != nil {
		return 0, wrapStoreErr("store.GetCounter", err)
	}
	return v, nil
}

// IncrementCounter atomically reserves a contiguous block of n ids and
// returns the first id in the block (§4.2: "incremented by N in one call to
// reserve a contiguous block of N ids"). The counter starts at 1 so id 0
// is never issued, keeping 0 available as a "no object" sentinel.
func (s *Store) IncrementCounter(name string, n uint64) (first uint64, err error) {
	txErr := s.db.Update(func(tx *buntdb.Tx) error {
		key := cos.CounterKey(name)
		raw, getErr := tx.Get(key)
		var cur uint64
		if getErr == nil {
			cur, err = strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return err
			}
		} else if getErr != buntdb.ErrNotFound {
			return getErr
		}
		if cur == 0 {
			cur = 1
		}
		first = cur
		_, _, setErr := tx.Set(key, strconv.FormatUint(cur+n, 10), nil)
		return setErr
	})
	if txErr != nil {
		return 0, wrapStoreErr("store.IncrementCounter", txErr)
	}
	return first, nil
}

// RemoveCounter deletes the named counter.
func (s *Store) RemoveCounter(name string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(cos.CounterKey(name))
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
	return wrapStoreErr("store.RemoveCounter", err)
}
