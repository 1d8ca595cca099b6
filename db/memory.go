package db

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store for local development and tests.
// Documents are kept as BSON in insertion order. Transactions are serialized
// against each other and roll back on error; plain calls outside a
// transaction are not isolated from it.
type MemoryStore struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	colls   map[string][]bson.Raw
	uniques map[string]map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		colls:   make(map[string][]bson.Raw),
		uniques: make(map[string]map[string][]string),
	}
}

func (s *MemoryStore) Find(_ context.Context, coll string, filter bson.M, out any, opts ...FindOption) error {
	fo := collectFindOptions(opts)

	s.mu.RLock()
	matched, _, err := s.match(coll, filter, -1)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if len(fo.Projection) > 0 {
		for i, doc := range matched {
			if matched[i], err = project(doc, fo.Projection); err != nil {
				return err
			}
		}
	}
	return decodeAll(matched, out)
}

func (s *MemoryStore) FindOne(_ context.Context, coll string, filter bson.M, out any) error {
	s.mu.RLock()
	matched, _, err := s.match(coll, filter, 1)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		return ErrNotFound
	}
	return bson.Unmarshal(matched[0], out)
}

func (s *MemoryStore) InsertOne(_ context.Context, coll string, doc any) (InsertResult, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return InsertResult{}, fmt.Errorf("encode %s: %w", coll, err)
	}
	raw, id, err := ensureID(raw)
	if err != nil {
		return InsertResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.violatesUnique(coll, raw, -1) {
		return InsertResult{}, ErrDuplicateKey
	}
	s.colls[coll] = append(s.colls[coll], raw)
	return InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (s *MemoryStore) UpdateOne(_ context.Context, coll string, filter, set bson.M, upsert bool) (UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched, idx, err := s.match(coll, filter, 1)
	if err != nil {
		return UpdateResult{}, err
	}

	if len(matched) == 1 {
		updated, err := applySet(matched[0], set)
		if err != nil {
			return UpdateResult{}, err
		}
		if s.violatesUnique(coll, updated, idx[0]) {
			return UpdateResult{}, ErrDuplicateKey
		}
		res := UpdateResult{Acknowledged: true, MatchedCount: 1}
		if !bytes.Equal(matched[0], updated) {
			s.colls[coll][idx[0]] = updated
			res.ModifiedCount = 1
		}
		return res, nil
	}

	if !upsert {
		return UpdateResult{Acknowledged: true}, nil
	}

	base, err := bson.Marshal(sortedDoc(filter))
	if err != nil {
		return UpdateResult{}, fmt.Errorf("encode upsert filter: %w", err)
	}
	doc, err := applySet(base, set)
	if err != nil {
		return UpdateResult{}, err
	}
	doc, id, err := ensureID(doc)
	if err != nil {
		return UpdateResult{}, err
	}
	if s.violatesUnique(coll, doc, -1) {
		return UpdateResult{}, ErrDuplicateKey
	}
	s.colls[coll] = append(s.colls[coll], doc)
	return UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &id}, nil
}

func (s *MemoryStore) DeleteOne(_ context.Context, coll string, filter bson.M) (DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, idx, err := s.match(coll, filter, 1)
	if err != nil {
		return DeleteResult{}, err
	}
	if len(idx) == 0 {
		return DeleteResult{Acknowledged: true}, nil
	}

	docs := s.colls[coll]
	kept := make([]bson.Raw, 0, len(docs)-1)
	kept = append(kept, docs[:idx[0]]...)
	kept = append(kept, docs[idx[0]+1:]...)
	s.colls[coll] = kept
	return DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (s *MemoryStore) EnsureUnique(_ context.Context, coll, name string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.colls[coll]
	for i := range docs {
		for j := i + 1; j < len(docs); j++ {
			if sameValues(docs[i], docs[j], keys) {
				return fmt.Errorf("index %s: %w", name, ErrDuplicateKey)
			}
		}
	}
	if s.uniques[coll] == nil {
		s.uniques[coll] = make(map[string][]string)
	}
	s.uniques[coll][name] = keys
	return nil
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}

func (s *MemoryStore) snapshot() map[string][]bson.Raw {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string][]bson.Raw, len(s.colls))
	for name, docs := range s.colls {
		snap[name] = append([]bson.Raw(nil), docs...)
	}
	return snap
}

func (s *MemoryStore) restore(snap map[string][]bson.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colls = snap
}

// match returns up to limit matching documents with their positions. A
// negative limit returns all matches. Callers hold s.mu.
func (s *MemoryStore) match(coll string, filter bson.M, limit int) ([]bson.Raw, []int, error) {
	var docs []bson.Raw
	var idx []int
	for i, doc := range s.colls[coll] {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		docs = append(docs, doc)
		idx = append(idx, i)
		if limit > 0 && len(docs) == limit {
			break
		}
	}
	return docs, idx, nil
}

func (s *MemoryStore) violatesUnique(coll string, doc bson.Raw, skip int) bool {
	keySets := [][]string{{"_id"}}
	for _, keys := range s.uniques[coll] {
		keySets = append(keySets, keys)
	}
	for _, keys := range keySets {
		for i, other := range s.colls[coll] {
			if i != skip && sameValues(doc, other, keys) {
				return true
			}
		}
	}
	return false
}

func matches(doc bson.Raw, filter bson.M) (bool, error) {
	for key, want := range filter {
		t, data, err := bson.MarshalValue(want)
		if err != nil {
			return false, fmt.Errorf("encode filter %s: %w", key, err)
		}
		got, err := doc.LookupErr(key)
		if err != nil {
			// a null filter matches a missing field
			if t == bsontype.Null {
				continue
			}
			return false, nil
		}
		if got.Type != t || !bytes.Equal(got.Value, data) {
			return false, nil
		}
	}
	return true, nil
}

func sameValues(a, b bson.Raw, keys []string) bool {
	for _, k := range keys {
		av, aerr := a.LookupErr(k)
		bv, berr := b.LookupErr(k)
		if (aerr == nil) != (berr == nil) {
			return false
		}
		if aerr == nil && (av.Type != bv.Type || !bytes.Equal(av.Value, bv.Value)) {
			return false
		}
	}
	return true
}

func rawToD(raw bson.Raw) (bson.D, error) {
	elems, err := raw.Elements()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	d := make(bson.D, 0, len(elems))
	for _, e := range elems {
		d = append(d, bson.E{Key: e.Key(), Value: e.Value()})
	}
	return d, nil
}

func ensureID(raw bson.Raw) (bson.Raw, primitive.ObjectID, error) {
	if v, err := raw.LookupErr("_id"); err == nil {
		id, _ := v.ObjectIDOK()
		return raw, id, nil
	}

	d, err := rawToD(raw)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	id := primitive.NewObjectID()
	d = append(bson.D{{Key: "_id", Value: id}}, d...)
	out, err := bson.Marshal(d)
	if err != nil {
		return nil, primitive.NilObjectID, fmt.Errorf("encode document: %w", err)
	}
	return out, id, nil
}

func applySet(raw bson.Raw, set bson.M) (bson.Raw, error) {
	d, err := rawToD(raw)
	if err != nil {
		return nil, err
	}
	for _, e := range sortedDoc(set) {
		replaced := false
		for i := range d {
			if d[i].Key == e.Key {
				d[i].Value = e.Value
				replaced = true
				break
			}
		}
		if !replaced {
			d = append(d, e)
		}
	}
	out, err := bson.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	return out, nil
}

func project(raw bson.Raw, fields []string) (bson.Raw, error) {
	d := bson.D{}
	for _, f := range fields {
		if v, err := raw.LookupErr(f); err == nil {
			d = append(d, bson.E{Key: f, Value: v})
		}
	}
	out, err := bson.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode projection: %w", err)
	}
	return out, nil
}

func sortedDoc(m bson.M) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: m[k]})
	}
	return d
}

func decodeAll(docs []bson.Raw, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("db: out must be a pointer to a slice, got %T", out)
	}
	slice := rv.Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, doc := range docs {
		elem := reflect.New(slice.Type().Elem())
		if err := bson.Unmarshal(doc, elem.Interface()); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}
