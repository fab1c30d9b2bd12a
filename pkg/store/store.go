// Package store provides persistence for discovery snapshots and diagram graphs.
//
// This package defines the Store interface with implementations for different
// backends:
//   - file: JSON files in a local directory, for CLI workflows
//   - mongo: MongoDB-backed storage for server deployments
//
// # Architecture
//
// Records are addressed by name. Saving under an existing name replaces the
// previous record (upsert semantics), so repeated discovery runs for the same
// project keep exactly one current snapshot per name.
//
// # Usage
//
// Create a store:
//
//	// CLI
//	st, err := store.NewFileStore("./output/store")
//
//	// Server
//	st, err := store.NewMongoStore(ctx, store.MongoConfig{
//	    URI: "mongodb://localhost:27017",
//	})
//
// Persist a discovery run:
//
//	err := st.SaveSnapshot(ctx, &store.SnapshotRecord{
//	    Name:     "production",
//	    Snapshot: snap,
//	})
package store

import (
	"context"
	"time"

	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
)

// SnapshotRecord is a named, timestamped discovery snapshot.
type SnapshotRecord struct {
	Name      string              `json:"name" bson:"_id"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	Snapshot  *discovery.Snapshot `json:"snapshot" bson:"snapshot"`
}

// GraphRecord is a named, timestamped diagram graph.
type GraphRecord struct {
	Name        string                   `json:"name" bson:"_id"`
	DiagramType string                   `json:"diagram_type,omitempty" bson:"diagram_type,omitempty"`
	CreatedAt   time.Time                `json:"created_at" bson:"created_at"`
	Graph       *graph.ArchitectureGraph `json:"graph" bson:"graph"`
}

// Store is the interface for snapshot and graph persistence backends.
type Store interface {
	// SaveSnapshot stores a snapshot record, replacing any record with the
	// same name. If CreatedAt is zero it is set to the current time.
	SaveSnapshot(ctx context.Context, rec *SnapshotRecord) error

	// LoadSnapshot retrieves a snapshot record by name.
	// Returns an error with code ErrCodeSnapshotNotFound if no record exists.
	LoadSnapshot(ctx context.Context, name string) (*SnapshotRecord, error)

	// ListSnapshots returns the names of all stored snapshots, sorted.
	ListSnapshots(ctx context.Context) ([]string, error)

	// DeleteSnapshot removes a snapshot record. Deleting a missing record
	// is not an error.
	DeleteSnapshot(ctx context.Context, name string) error

	// SaveGraph stores a graph record, replacing any record with the same
	// name. If CreatedAt is zero it is set to the current time.
	SaveGraph(ctx context.Context, rec *GraphRecord) error

	// LoadGraph retrieves a graph record by name.
	// Returns an error with code ErrCodeNotFound if no record exists.
	LoadGraph(ctx context.Context, name string) (*GraphRecord, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
