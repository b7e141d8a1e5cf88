package store

import (
	"github.com/tidwall/buntdb"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/olitheolix/azrael-sub000/cmn"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
)

// Put inserts doc under aid in collection iff absent — "insert-if-absent"
// per §4.2.
func (s *Store) Put(collection, aid string, doc []byte) error {
	key := cos.CollectionKey(collection, aid)
	err := s.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Get(key); err == nil {
			return cmn.NewError(cmn.KindConflict, "store.Put", nil)
		} else if err != buntdb.ErrNotFound {
			return err
		}
		_, _, err := tx.Set(key, string(doc), nil)
		return err
	})
	if azErr, ok := err.(*cmn.Error); ok {
		return azErr
	}
	return wrapStoreErr("store.Put", err)
}

// Replace overwrites aid's document in collection unconditionally.
func (s *Store) Replace(collection, aid string, doc []byte) error {
	key := cos.CollectionKey(collection, aid)
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(doc), nil)
		return err
	})
	return wrapStoreErr("store.Replace", err)
}

// GetOne returns the raw document for aid, or the key-path projection of it
// if projection is non-empty. Projections are jsoniter/gjson key paths with
// no reserved delimiters (§4.2).
func (s *Store) GetOne(collection, aid string, projection []string) ([]byte, error) {
	key := cos.CollectionKey(collection, aid)
	var raw string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("store.GetOne", err)
	}
	return project(raw, projection), nil
}

// GetMulti returns the documents for ids present in collection, keyed by id.
// Missing ids are silently omitted, matching §4.1's "unknown ids are
// silently tolerated" reads.
func (s *Store) GetMulti(collection string, ids []string, projection []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(ids))
	err := s.db.View(func(tx *buntdb.Tx) error {
		for _, aid := range ids {
			v, err := tx.Get(cos.CollectionKey(collection, aid))
			if err == buntdb.ErrNotFound {
				continue
			}
			if err != nil {
				return err
			}
			out[aid] = project(v, projection)
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("store.GetMulti", err)
	}
	return out, nil
}

// GetAll returns every document in collection, keyed by aid.
func (s *Store) GetAll(collection string, projection []string) (map[string][]byte, error) {
	out := map[string][]byte{}
	prefix := cos.CollectionKey(collection, "")
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(key, value string) bool {
			aid := key[len(prefix):]
			out[aid] = project(value, projection)
			return true
		})
	})
	if err != nil {
		return nil, wrapStoreErr("store.GetAll", err)
	}
	return out, nil
}

// AllKeys returns every aid present in collection.
func (s *Store) AllKeys(collection string) ([]string, error) {
	var keys []string
	prefix := cos.CollectionKey(collection, "")
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(key, _ string) bool {
			keys = append(keys, key[len(prefix):])
			return true
		})
	})
	if err != nil {
		return nil, wrapStoreErr("store.AllKeys", err)
	}
	return keys, nil
}

// ReplaceMulti overwrites many documents in collection inside a single
// transaction — Leonard's "commit the mirror in one write batch per
// collection" (§4.4 step 8).
func (s *Store) ReplaceMulti(collection string, docs map[string][]byte) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		for aid, doc := range docs {
			if _, _, err := tx.Set(cos.CollectionKey(collection, aid), string(doc), nil); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapStoreErr("store.ReplaceMulti", err)
}

// Remove deletes ids from collection. Unknown ids are ignored.
func (s *Store) Remove(collection string, ids []string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		for _, aid := range ids {
			if _, err := tx.Delete(cos.CollectionKey(collection, aid)); err != nil && err != buntdb.ErrNotFound {
				return err
			}
		}
		return nil
	})
	return wrapStoreErr("store.Remove", err)
}

// Mutation is one §4.2 modify() operation: set/unset key paths, or
// increment a numeric key path. Exactly one of Set/Unset/Inc should be used
// per Mutation.
type Mutation struct {
	Path string
	Set  interface{}
	Unset bool
	Inc   float64
}

// Modify applies a set of key-path mutations to aid's document atomically,
// failing with UnknownID if the document does not exist — "single-document
// atomic" per §4.2.
func (s *Store) Modify(collection, aid string, muts []Mutation) error {
	key := cos.CollectionKey(collection, aid)
	err := s.db.Update(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(key)
		if err != nil {
			return err
		}
		doc := raw
		for _, m := range muts {
			switch {
			case m.Unset:
				doc, err = sjson.Delete(doc, m.Path)
			case m.Inc != 0:
				cur := gjson.Get(doc, m.Path).Float()
				doc, err = sjson.Set(doc, m.Path, cur+m.Inc)
			default:
				doc, err = sjson.Set(doc, m.Path, m.Set)
			}
			if err != nil {
				return err
			}
		}
		_, _, err = tx.Set(key, doc, nil)
		return err
	})
	return wrapStoreErr("store.Modify", err)
}

func project(raw string, projection []string) []byte {
	if len(projection) == 0 {
		return []byte(raw)
	}
	out := "{}"
	for _, path := range projection {
		v := gjson.Get(raw, path)
		if !v.Exists() {
			continue
		}
		var err error
		out, err = sjson.SetRaw(out, path, v.Raw)
		if err != nil {
			continue
		}
	}
	return []byte(out)
}
