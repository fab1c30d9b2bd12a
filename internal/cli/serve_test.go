package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/rime13-coder/azure-diagram-generator/pkg/azure"
	"github.com/rime13-coder/azure-diagram-generator/pkg/discovery"
	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
	"github.com/rime13-coder/azure-diagram-generator/pkg/pipeline"
)

func testServeSnapshot() *discovery.Snapshot {
	subID := "33333333-aaaa-bbbb-cccc-444444444444"
	return &discovery.Snapshot{
		Subscriptions: []azure.Resource{{
			"subscriptionId": subID,
			"name":           "Staging",
		}},
		ResourceGroups: []azure.Resource{{
			"id":             "/subscriptions/" + subID + "/resourcegroups/rg-web",
			"name":           "rg-web",
			"subscriptionId": subID,
		}},
		Resources: []azure.Resource{{
			"id":             "/subscriptions/" + subID + "/resourcegroups/rg-web/providers/microsoft.web/sites/app-web",
			"name":           "app-web",
			"type":           "microsoft.web/sites",
			"subscriptionId": subID,
			"resourceGroup":  "rg-web",
			"properties":     map[string]any{},
		}},
	}
}

func postDiagrams(t *testing.T, req diagramRequest) *httptest.ResponseRecorder {
	t.Helper()

	runner := pipeline.NewRunner(nil, nil, nil, newLogger(io.Discard, log.InfoLevel))
	handler := handleDiagrams(runner, newLogger(io.Discard, log.InfoLevel))

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/v1/diagrams", bytes.NewReader(body)))
	return rec
}

func TestHandleDiagrams(t *testing.T) {
	rec := postDiagrams(t, diagramRequest{
		Snapshot:     testServeSnapshot(),
		DiagramTypes: []string{"high-level"},
		Formats:      []string{"mermaid"},
		ProjectName:  "staging",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp diagramResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Graph.Pages) != 1 {
		t.Errorf("page count = %d, want 1", len(resp.Graph.Pages))
	}
	if resp.Graph.Title != "staging" {
		t.Errorf("graph title = %q, want staging", resp.Graph.Title)
	}
	if len(resp.Artifacts["mermaid"]) == 0 {
		t.Error("mermaid artifact missing from response")
	}
}

func TestHandleDiagramsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		req  diagramRequest
	}{
		{
			name: "missing snapshot",
			req:  diagramRequest{DiagramTypes: []string{"network"}},
		},
		{
			name: "unknown diagram type",
			req:  diagramRequest{Snapshot: testServeSnapshot(), DiagramTypes: []string{"floorplan"}},
		},
		{
			name: "unknown format",
			req:  diagramRequest{Snapshot: testServeSnapshot(), Formats: []string{"visio"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postDiagrams(t, tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", errors.New(errors.ErrCodeInvalidInput, "bad"), http.StatusBadRequest},
		{"invalid diagram", errors.New(errors.ErrCodeInvalidDiagram, "bad"), http.StatusBadRequest},
		{"snapshot not found", errors.New(errors.ErrCodeSnapshotNotFound, "gone"), http.StatusNotFound},
		{"render failure", errors.New(errors.ErrCodeRender, "boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError() = %d, want %d", got, tt.want)
			}
		})
	}
}
