package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/ingest"
)

// loadDocument reads path as JSON or YAML based on its extension into a
// Document tree without building it, so callers that still need to
// mutate it (import-bookings) can do so before a later ingest.Build.
func loadDocument(path string) (*ingest.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cli: opening %s: %w", path, err)
	}
	defer f.Close()

	if isYAMLPath(path) {
		return ingest.DecodeYAML(f)
	}
	return ingest.DecodeJSON(f)
}

// loadGraph reads path and builds it straight into a frozen domain.Graph.
func loadGraph(path string) (*domain.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cli: opening %s: %w", path, err)
	}
	defer f.Close()

	if isYAMLPath(path) {
		return ingest.LoadYAML(f)
	}
	return ingest.LoadJSON(f)
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// findScenarioByName returns the scenario id in graph whose name matches,
// case-insensitively.
func findScenarioByName(graph *domain.Graph, name string) (domain.ScenarioID, error) {
	for id, s := range graph.Scenarios {
		if strings.EqualFold(s.Name, name) {
			return id, nil
		}
	}
	return domain.NoScenario, fmt.Errorf("cli: no scenario named %q", name)
}

// scenarioNames returns every scenario name in graph, in declaration order.
func scenarioNames(graph *domain.Graph) []string {
	names := make([]string, 0, len(graph.Scenarios))
	for _, id := range graph.ScenarioOrder {
		names = append(names, graph.Scenarios[id].Name)
	}
	return names
}
