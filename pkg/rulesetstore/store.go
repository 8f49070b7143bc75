// Package rulesetstore persists rulesets as compressed, unsigned .ordo
// containers in a backing database, so a fleet of executor processes can
// load a named ruleset version without shipping the source file around.
// SQLStore drives any of the pkg/database backends (sqlite/postgres/mysql);
// MongoStore drives pkg/mongodb for deployments that already run Mongo.
package rulesetstore

import (
	"context"
	"errors"
	"time"

	"github.com/pama-lee/ordo/pkg/cache"
	"github.com/pama-lee/ordo/pkg/container"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

// ErrNotFound is returned by Load when the (name, version) pair has no
// stored ruleset.
var ErrNotFound = errors.New("rulesetstore: ruleset not found")

// Store persists rulesets keyed by name and version.
type Store interface {
	// Save stores r under r.Config.Name/r.Config.Version, overwriting any
	// existing ruleset at that exact version.
	Save(ctx context.Context, r *ruleset.RuleSet) error

	// Load returns the ruleset stored under name/version, or ErrNotFound.
	Load(ctx context.Context, name, version string) (*ruleset.RuleSet, error)

	// ListVersions returns every version stored under name, oldest first.
	ListVersions(ctx context.Context, name string) ([]string, error)

	// Delete removes the ruleset stored under name/version. Deleting a
	// version that does not exist is a no-op, not an error.
	Delete(ctx context.Context, name, version string) error

	Close() error
}

// Record is the metadata row a backend keeps alongside a container's raw
// bytes; it is what ListVersions reconstructs without decoding the payload.
type Record struct {
	Name      string
	Version   string
	Checksum  string
	Container []byte
	SavedAt   time.Time
}

func encode(r *ruleset.RuleSet) ([]byte, error) {
	return container.Save(r, container.SaveOptions{Compress: true})
}

func decode(data []byte) (*ruleset.RuleSet, error) {
	return container.Load(data, container.LoadOptions{})
}

func checksum(r *ruleset.RuleSet) (string, error) {
	return cache.Checksum(r)
}
