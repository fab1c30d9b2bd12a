package store

import (
	"context"
	"testing"
	"time"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/graph"
)

func testSnapshot() *discovery.Snapshot {
	return &discovery.Snapshot{
		TakenAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Resources: []azure.Resource{
			{
				"id":   "/subscriptions/sub-1/resourcegroups/rg-1/providers/microsoft.compute/virtualmachines/vm-01",
				"name": "vm-01",
				"type": "microsoft.compute/virtualmachines",
			},
		},
	}
}

func testGraph() *graph.ArchitectureGraph {
	g := graph.New("Test Architecture")
	g.AddPage(graph.Page{
		ID:    "main",
		Title: "Main",
		Nodes: []graph.Node{{ID: "vm-01", Label: "vm-01"}},
	})
	return g
}

func TestFileStoreSnapshotRoundTrip(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	rec := &SnapshotRecord{Name: "production", Snapshot: testSnapshot()}
	if err := st.SaveSnapshot(ctx, rec); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("SaveSnapshot() should set CreatedAt")
	}

	got, err := st.LoadSnapshot(ctx, "production")
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if got.Name != "production" {
		t.Errorf("Name = %q, want %q", got.Name, "production")
	}
	if len(got.Snapshot.Resources) != 1 {
		t.Fatalf("got %d resources, want 1", len(got.Snapshot.Resources))
	}
	if got.Snapshot.Resources[0].Name() != "vm-01" {
		t.Errorf("resource name = %q, want %q", got.Snapshot.Resources[0].Name(), "vm-01")
	}
}

func TestFileStoreSnapshotNotFound(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	_, err = st.LoadSnapshot(context.Background(), "missing")
	if !errors.Is(err, errors.ErrCodeSnapshotNotFound) {
		t.Errorf("LoadSnapshot() error = %v, want code %s", err, errors.ErrCodeSnapshotNotFound)
	}
}

func TestFileStoreSaveReplacesExisting(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	first := &SnapshotRecord{Name: "production", Snapshot: testSnapshot()}
	if err := st.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	second := &SnapshotRecord{Name: "production", Snapshot: &discovery.Snapshot{
		TakenAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}}
	if err := st.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	got, err := st.LoadSnapshot(ctx, "production")
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(got.Snapshot.Resources) != 0 {
		t.Errorf("got %d resources after replace, want 0", len(got.Snapshot.Resources))
	}

	names, err := st.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(names) != 1 {
		t.Errorf("got %d snapshots after replace, want 1", len(names))
	}
}

func TestFileStoreListSnapshotsSorted(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	for _, name := range []string{"staging", "dev", "production"} {
		rec := &SnapshotRecord{Name: name, Snapshot: testSnapshot()}
		if err := st.SaveSnapshot(ctx, rec); err != nil {
			t.Fatalf("SaveSnapshot(%q) error = %v", name, err)
		}
	}

	names, err := st.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	want := []string{"dev", "production", "staging"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFileStoreDeleteSnapshot(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	rec := &SnapshotRecord{Name: "production", Snapshot: testSnapshot()}
	if err := st.SaveSnapshot(ctx, rec); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if err := st.DeleteSnapshot(ctx, "production"); err != nil {
		t.Fatalf("DeleteSnapshot() error = %v", err)
	}
	if _, err := st.LoadSnapshot(ctx, "production"); !errors.Is(err, errors.ErrCodeSnapshotNotFound) {
		t.Errorf("LoadSnapshot() after delete error = %v, want code %s", err, errors.ErrCodeSnapshotNotFound)
	}

	// Deleting a missing record is not an error.
	if err := st.DeleteSnapshot(ctx, "production"); err != nil {
		t.Errorf("DeleteSnapshot() on missing record error = %v", err)
	}
}

func TestFileStoreGraphRoundTrip(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	rec := &GraphRecord{Name: "production-network", DiagramType: "network", Graph: testGraph()}
	if err := st.SaveGraph(ctx, rec); err != nil {
		t.Fatalf("SaveGraph() error = %v", err)
	}

	got, err := st.LoadGraph(ctx, "production-network")
	if err != nil {
		t.Fatalf("LoadGraph() error = %v", err)
	}
	if got.DiagramType != "network" {
		t.Errorf("DiagramType = %q, want %q", got.DiagramType, "network")
	}
	if len(got.Graph.Pages) != 1 || len(got.Graph.Pages[0].Nodes) != 1 {
		t.Fatalf("graph shape lost in round trip: %+v", got.Graph)
	}

	if _, err := st.LoadGraph(ctx, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("LoadGraph(missing) error = %v, want code %s", err, errors.ErrCodeNotFound)
	}
}

func TestFileStoreRejectsUnnamedRecords(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	if err := st.SaveSnapshot(ctx, &SnapshotRecord{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SaveSnapshot(unnamed) error = %v, want code %s", err, errors.ErrCodeInvalidInput)
	}
	if err := st.SaveGraph(ctx, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SaveGraph(nil) error = %v, want code %s", err, errors.ErrCodeInvalidInput)
	}
}
