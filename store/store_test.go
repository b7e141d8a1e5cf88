package store

import (
	"testing"

	"github.com/tidwall/gjson"

	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutIsInsertIfAbsent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put(Templates, "t1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	err := s.Put(Templates, "t1", []byte(`{"a":2}`))
	if cmn.KindOf(err) != cmn.KindConflict {
		t.Fatalf("expected Conflict on duplicate Put, got %v", err)
	}
}

func TestGetOneUnknownIsUnknownID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetOne(Templates, "missing", nil)
	if cmn.KindOf(err) != cmn.KindUnknownID {
		t.Fatalf("expected UnknownID, got %v", err)
	}
}

func TestIncrementCounterReservesContiguousBlock(t *testing.T) {
	s := openTestStore(t)
	first, err := s.IncrementCounter("objectID", 3)
	if err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first id 1 (counter starts at 1), got %d", first)
	}
	second, err := s.IncrementCounter("objectID", 1)
	if err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}
	if second != 4 {
		t.Fatalf("expected next block to start at 4, got %d", second)
	}
}

func TestEnqueueDrainOrdersBySeq(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 3; i++ {
		if err := s.Enqueue(cluster.QueueSpawn, cluster.ObjectID(i), cluster.SpawnPayload{TemplateID: "t"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	entries, err := s.Drain(cluster.QueueSpawn)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.ObjectID != cluster.ObjectID(i) {
			t.Fatalf("expected drain order to match enqueue order, entry %d has objectID %d", i, e.ObjectID)
		}
	}

	again, err := s.Drain(cluster.QueueSpawn)
	if err != nil {
		t.Fatalf("second Drain: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected queue emptied after Drain, got %d entries", len(again))
	}
}

func TestModifyAppliesKeyPathMutations(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put(Bodies, "1", []byte(`{"version":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Modify(Bodies, "1", []Mutation{{Path: "version", Inc: 1}}); err != nil {
		t.Fatalf("Modify: %v", err)
	}
	doc, err := s.GetOne(Bodies, "1", nil)
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if v := gjson.GetBytes(doc, "version").Float(); v != 2 {
		t.Fatalf("expected version incremented to 2, got %v (%s)", v, doc)
	}
}

func TestReplaceMultiIsOneTransaction(t *testing.T) {
	s := openTestStore(t)
	docs := map[string][]byte{"1": []byte(`{"v":1}`), "2": []byte(`{"v":2}`)}
	if err := s.ReplaceMulti(Bodies, docs); err != nil {
		t.Fatalf("ReplaceMulti: %v", err)
	}
	keys, err := s.AllKeys(Bodies)
	if err != nil {
		t.Fatalf("AllKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}
