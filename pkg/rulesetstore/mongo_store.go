package rulesetstore

import (
	"context"
	"fmt"

	"github.com/pama-lee/ordo/pkg/mongodb"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

const rulesetsCollection = "rulesets"

// MongoCollection is the subset of mongodb.CollectionHandler (and its test
// double, mongodb.MockCollectionHandler) MongoStore needs.
type MongoCollection interface {
	FindOne(filter map[string]interface{}) (map[string]interface{}, error)
	Find(filter map[string]interface{}) ([]map[string]interface{}, error)
	InsertOne(doc map[string]interface{}) (interface{}, error)
	DeleteOne(filter map[string]interface{}) (int64, error)
}

// MongoHandle is the subset of mongodb.Handler MongoStore needs, narrowed so
// tests can drive MongoStore against mongodb.MockHandler without a live
// server. Neither mongodb.Handler nor mongodb.MockHandler implements this
// directly, since Go does not let a method's concrete return type
// (*mongodb.CollectionHandler / *mongodb.MockCollectionHandler) satisfy an
// interface method declared to return MongoCollection; HandlerAdapter and
// MockHandlerAdapter below bridge that gap.
type MongoHandle interface {
	Collection(name string) MongoCollection
	Close() error
}

// HandlerAdapter adapts a real, connected mongodb.Handler to MongoHandle.
type HandlerAdapter struct{ H *mongodb.Handler }

func (a HandlerAdapter) Collection(name string) MongoCollection { return a.H.Collection(name) }
func (a HandlerAdapter) Close() error                           { return a.H.Close() }

// MockHandlerAdapter adapts mongodb.MockHandler to MongoHandle, for tests
// that want full MongoStore CRUD coverage without a live MongoDB instance.
type MockHandlerAdapter struct{ H *mongodb.MockHandler }

func (a MockHandlerAdapter) Collection(name string) MongoCollection { return a.H.Collection(name) }
func (a MockHandlerAdapter) Close() error                           { return a.H.Close() }

// MongoStore persists rulesets as one document per (name, version) in a
// single collection, with the packed .ordo bytes held as a BSON binary
// field rather than re-expressed as nested BSON documents.
type MongoStore struct {
	h MongoHandle
}

// NewMongoStoreFromHandle wraps any MongoHandle (a real Handler via
// HandlerAdapter, or a MockHandler via MockHandlerAdapter in tests).
func NewMongoStoreFromHandle(h MongoHandle) *MongoStore {
	return &MongoStore{h: h}
}

// NewMongoStore wraps an already-connected mongodb.Handler.
func NewMongoStore(h *mongodb.Handler) *MongoStore {
	return NewMongoStoreFromHandle(HandlerAdapter{H: h})
}

// NewMongoStoreFromURI connects to uri and selects dbName.
func NewMongoStoreFromURI(uri, dbName string) (*MongoStore, error) {
	h, err := mongodb.NewHandlerFromURI(uri, dbName)
	if err != nil {
		return nil, err
	}
	return NewMongoStore(h), nil
}

func rulesetDocID(name, version string) string {
	return name + "@" + version
}

// Save implements Store.
func (m *MongoStore) Save(ctx context.Context, r *ruleset.RuleSet) error {
	packed, err := encode(r)
	if err != nil {
		return fmt.Errorf("rulesetstore: encode: %w", err)
	}
	sum, err := checksum(r)
	if err != nil {
		return fmt.Errorf("rulesetstore: checksum: %w", err)
	}

	coll := m.h.Collection(rulesetsCollection)
	id := rulesetDocID(r.Config.Name, r.Config.Version)

	if _, err := coll.DeleteOne(map[string]interface{}{"_id": id}); err != nil {
		return fmt.Errorf("rulesetstore: clear prior version: %w", err)
	}
	_, err = coll.InsertOne(map[string]interface{}{
		"_id":       id,
		"name":      r.Config.Name,
		"version":   r.Config.Version,
		"checksum":  sum,
		"container": packed,
	})
	if err != nil {
		return fmt.Errorf("rulesetstore: insert: %w", err)
	}
	return nil
}

// Load implements Store.
func (m *MongoStore) Load(ctx context.Context, name, version string) (*ruleset.RuleSet, error) {
	coll := m.h.Collection(rulesetsCollection)
	doc, err := coll.FindOne(map[string]interface{}{"_id": rulesetDocID(name, version)})
	if err != nil {
		return nil, fmt.Errorf("rulesetstore: load: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	packed, ok := doc["container"].([]byte)
	if !ok {
		return nil, fmt.Errorf("rulesetstore: stored container has unexpected type %T", doc["container"])
	}
	return decode(packed)
}

// ListVersions implements Store.
func (m *MongoStore) ListVersions(ctx context.Context, name string) ([]string, error) {
	coll := m.h.Collection(rulesetsCollection)
	docs, err := coll.Find(map[string]interface{}{"name": name})
	if err != nil {
		return nil, fmt.Errorf("rulesetstore: list versions: %w", err)
	}

	versions := make([]string, 0, len(docs))
	for _, doc := range docs {
		if v, ok := doc["version"].(string); ok {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

// Delete implements Store.
func (m *MongoStore) Delete(ctx context.Context, name, version string) error {
	coll := m.h.Collection(rulesetsCollection)
	_, err := coll.DeleteOne(map[string]interface{}{"_id": rulesetDocID(name, version)})
	if err != nil {
		return fmt.Errorf("rulesetstore: delete: %w", err)
	}
	return nil
}

// Close implements Store.
func (m *MongoStore) Close() error {
	return m.h.Close()
}
