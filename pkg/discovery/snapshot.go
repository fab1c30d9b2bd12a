package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
)

// Snapshot is one complete discovery result: everything needed to build
// any diagram without touching Azure again. Snapshots serialize to JSON
// so they can be stored, diffed, and replayed offline.
type Snapshot struct {
	TakenAt        time.Time        `json:"taken_at" bson:"taken_at"`
	Subscriptions  []azure.Resource `json:"subscriptions,omitempty" bson:"subscriptions,omitempty"`
	ResourceGroups []azure.Resource `json:"resource_groups,omitempty" bson:"resource_groups,omitempty"`
	Resources      []azure.Resource `json:"resources" bson:"resources"`
	NSGRules       []NSGRule        `json:"nsg_rules,omitempty" bson:"nsg_rules,omitempty"`
	Peerings       []VNetPeering    `json:"peerings,omitempty" bson:"peerings,omitempty"`
	Relationships  []Relationship   `json:"relationships,omitempty" bson:"relationships,omitempty"`
	DataFlows      []DataFlow       `json:"data_flows,omitempty" bson:"data_flows,omitempty"`
}

// Discover runs a full discovery against Azure and returns a snapshot
// with relationships and data flows already derived.
func (c *Client) Discover(ctx context.Context, filter ResourceFilter) (*Snapshot, error) {
	snap := &Snapshot{TakenAt: time.Now().UTC()}

	var err error
	if snap.Subscriptions, err = c.Subscriptions(ctx); err != nil {
		return nil, fmt.Errorf("discover subscriptions: %w", err)
	}
	if snap.ResourceGroups, err = c.ResourceGroups(ctx); err != nil {
		return nil, fmt.Errorf("discover resource groups: %w", err)
	}
	if snap.Resources, err = c.Resources(ctx, filter); err != nil {
		return nil, fmt.Errorf("discover resources: %w", err)
	}
	if snap.NSGRules, err = c.NSGRules(ctx); err != nil {
		return nil, fmt.Errorf("discover nsg rules: %w", err)
	}
	if snap.Peerings, err = c.VNetPeerings(ctx); err != nil {
		return nil, fmt.Errorf("discover peerings: %w", err)
	}

	snap.Derive()
	return snap, nil
}

// Derive (re)computes relationships and data flows from the snapshot's
// raw resources and rules. Called automatically by Discover; callers that
// load or edit a snapshot by hand can re-run it.
func (s *Snapshot) Derive() {
	s.Relationships = InferRelationships(s.Resources)
	s.DataFlows = DeriveDataFlows(s.Resources, s.Relationships, s.NSGRules)
}

// ResourcesOfType returns the snapshot's resources of one lower-cased type.
func (s *Snapshot) ResourcesOfType(resourceType string) []azure.Resource {
	var out []azure.Resource
	for _, r := range s.Resources {
		if r.Type() == resourceType {
			out = append(out, r)
		}
	}
	return out
}

// WriteSnapshot writes a snapshot as indented JSON to w.
func WriteSnapshot(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// WriteSnapshotFile writes a snapshot to a JSON file.
func WriteSnapshotFile(s *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSnapshot(s, f)
}

// ReadSnapshot decodes a snapshot from r.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// ReadSnapshotFile reads a snapshot from a JSON file.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
