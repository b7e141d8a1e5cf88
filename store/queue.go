// Command queues (§3, §4.1): one collection per kind, append-only between
// ticks, truncated to empty at tick start (§4.4 step 1). Multi-writer
// (clients, via Enqueue), single-reader (Leonard, via Drain).
package store

import (
	"sort"
	"strconv"

	"github.com/tidwall/buntdb"

	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
)

func queueCollection(kind cluster.QueueKind) string {
	switch kind {
	case cluster.QueueAddTemplate:
		return CmdAddTemplate
	case cluster.QueueSpawn:
		return CmdSpawn
	case cluster.QueueModify:
		return CmdModify
	case cluster.QueueDirectForce:
		return CmdDirectForce
	case cluster.QueueBoosterForce:
		return CmdBoosterForce
	case cluster.QueueRemove:
		return CmdRemove
	default:
		return string(kind)
	}
}

// Enqueue appends one command-queue entry. It is independently atomic per
// client request (§5 "Client concurrency") — the sequence number comes from
// a dedicated per-queue counter so ordering survives concurrent writers.
func (s *Store) Enqueue(kind cluster.QueueKind, objectID cluster.ObjectID, payload interface{}) error {
	seq, err := s.IncrementCounter(cos.Uitoa(cos.HashString("seq\x00"+string(kind))), 1)
	if err != nil {
		return err
	}
	rawPayload, err := cos.Marshal(payload)
	if err != nil {
		return err
	}
	entry := cluster.CmdEntry{Seq: seq, ObjectID: objectID, Payload: rawPayload}
	doc, err := marshalEntry(entry)
	if err != nil {
		return err
	}
	// aid is the sequence number: every enqueue is a distinct document,
	// never overwritten — append-only, per §3.
	return s.Put(queueCollection(kind), strconv.FormatUint(seq, 10), doc)
}

// Drain returns every entry currently in the queue, ordered by Seq
// (enqueue order, §4.4 step 1), then empties the queue. Leonard calls this
// once per tick per queue kind.
func (s *Store) Drain(kind cluster.QueueKind) ([]cluster.CmdEntry, error) {
	collection := queueCollection(kind)
	raw, err := s.GetAll(collection, nil)
	if err != nil {
		return nil, err
	}
	entries := make([]cluster.CmdEntry, 0, len(raw))
	keys := make([]string, 0, len(raw))
	for aid, doc := range raw {
		var e cluster.CmdEntry
		if err := unmarshalEntry(doc, &e); err != nil {
			continue
		}
		entries = append(entries, e)
		keys = append(keys, aid)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })

	if err := s.Remove(collection, keys); err != nil {
		return nil, err
	}
	return entries, nil
}

func marshalEntry(e cluster.CmdEntry) ([]byte, error) { return cos.Marshal(e) }
func unmarshalEntry(doc []byte, e *cluster.CmdEntry) error { return cos.Unmarshal(doc, e) }
