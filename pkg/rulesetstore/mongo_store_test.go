package rulesetstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pama-lee/ordo/pkg/mongodb"
	"github.com/pama-lee/ordo/pkg/ruleset"
	"github.com/pama-lee/ordo/pkg/rulesetstore"
)

func sampleStoreRuleSet(name, version string) *ruleset.RuleSet {
	return &ruleset.RuleSet{
		Config: ruleset.Config{
			Name:         name,
			Version:      version,
			EntryStep:    "done",
			FieldMissing: "lenient",
		},
		Steps: map[string]ruleset.Step{
			"done": {
				ID:     "done",
				Kind:   ruleset.KindTerminal,
				Result: &ruleset.TerminalResult{Code: "OK"},
			},
		},
	}
}

func newMongoStore() *rulesetstore.MongoStore {
	return rulesetstore.NewMongoStoreFromHandle(rulesetstore.MockHandlerAdapter{H: mongodb.NewMockHandler()})
}

func TestMongoStoreSaveLoadRoundTrip(t *testing.T) {
	store := newMongoStore()
	ctx := context.Background()

	r := sampleStoreRuleSet("approval", "1")
	if err := store.Save(ctx, r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "approval", "1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Config.Name != "approval" || got.Config.Version != "1" {
		t.Fatalf("loaded ruleset = %+v, want approval/1", got.Config)
	}
}

func TestMongoStoreLoadMissingReturnsErrNotFound(t *testing.T) {
	store := newMongoStore()
	_, err := store.Load(context.Background(), "nope", "1")
	if !errors.Is(err, rulesetstore.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMongoStoreSaveOverwritesSameVersion(t *testing.T) {
	store := newMongoStore()
	ctx := context.Background()

	if err := store.Save(ctx, sampleStoreRuleSet("approval", "1")); err != nil {
		t.Fatalf("Save 1: %v", err)
	}
	if err := store.Save(ctx, sampleStoreRuleSet("approval", "1")); err != nil {
		t.Fatalf("Save 2: %v", err)
	}

	versions, err := store.ListVersions(ctx, "approval")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("versions = %v, want exactly one version after overwrite", versions)
	}
}

func TestMongoStoreListVersions(t *testing.T) {
	store := newMongoStore()
	ctx := context.Background()

	for _, v := range []string{"1", "2", "3"} {
		if err := store.Save(ctx, sampleStoreRuleSet("approval", v)); err != nil {
			t.Fatalf("Save %s: %v", v, err)
		}
	}
	if err := store.Save(ctx, sampleStoreRuleSet("other", "1")); err != nil {
		t.Fatalf("Save other: %v", err)
	}

	versions, err := store.ListVersions(ctx, "approval")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("versions = %v, want 3", versions)
	}
}

func TestMongoStoreDelete(t *testing.T) {
	store := newMongoStore()
	ctx := context.Background()

	if err := store.Save(ctx, sampleStoreRuleSet("approval", "1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "approval", "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, "approval", "1"); !errors.Is(err, rulesetstore.ErrNotFound) {
		t.Fatalf("Load after delete: err = %v, want ErrNotFound", err)
	}
}
