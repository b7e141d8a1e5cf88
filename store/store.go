// Package store implements the Object Registry & Datastore (C2, §4.2): the
// single embedded document store backing Bodies, AABBs, Templates, Counters
// and the six command queues. Grounded on aistore's dependency on
// github.com/tidwall/buntdb; projections and partial modify use buntdb's
// usual companions, gjson/sjson, instead of a full document round-trip.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package store

import (
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/olitheolix/azrael-sub000/cmn"
)

// Collection names (§4.2).
const (
	Bodies         = "bodies"
	AABBs          = "aabbs"
	Templates      = "templates"
	CmdSpawn       = "cmdSpawn"
	CmdRemove      = "cmdRemove"
	CmdModify      = "cmdModify"
	CmdDirectForce = "cmdDirectForce"
	CmdBoosterForce = "cmdBoosterForce"
	CmdAddTemplate = "cmdAddTemplate"
)

// Store wraps a buntdb.DB. ":memory:" gives an in-process store with no
// on-disk persistence — the default, since §7's StoreError recovery path
// re-reads collections from whatever backs the store on next start, and an
// in-memory store's "next start" is simply process restart with an empty
// store, which is a valid (if unpersisted) instance of that contract.
type Store struct {
	db *buntdb.DB
}

// Open opens (or creates) the buntdb file at path. Use ":memory:" for a
// transient, non-persistent store.
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, cmn.NewError(cmn.KindStoreError, "store.Open", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return cmn.NewError(cmn.KindStoreError, "store.Close", err)
	}
	return nil
}

func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if err == buntdb.ErrNotFound {
		return cmn.NewError(cmn.KindUnknownID, op, err)
	}
	return cmn.NewError(cmn.KindStoreError, op, errors.WithStack(err))
}
