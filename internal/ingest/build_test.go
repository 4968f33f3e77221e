package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborsched/arbor/internal/domain"
)

func minimalDoc() *Document {
	return &Document{
		Project: ProjectDoc{
			Name:  "Launch",
			Start: "2026-01-01T00:00:00Z",
			End:   "2026-12-31T00:00:00Z",
		},
		Resources: []ResourceDoc{
			{Name: "alice", Efficiency: 1.0},
		},
		Tasks: []TaskDoc{
			{
				Name: "design",
				Kind: "effort",
				Children: []TaskDoc{
					{
						Name: "wireframes", Kind: "effort", Effort: 8,
						Allocations: []AllocationDoc{{Resources: []string{"alice"}, Policy: "order"}},
					},
					{Name: "review", Kind: "milestone"},
				},
			},
		},
	}
}

func TestBuild_MinimalDocument(t *testing.T) {
	g, err := Build(minimalDoc())
	require.NoError(t, err)
	assert.True(t, g.Frozen())
	assert.Equal(t, "Launch", g.Project.Name)

	design := taskByPath(g, "design")
	require.NotNil(t, design)
	assert.True(t, design.IsContainer())
	assert.Len(t, design.ChildIDs, 2)
}

func taskByPath(g *domain.Graph, path string) *domain.Task {
	for _, id := range g.TaskOrder {
		if g.Tasks[id].DotPath == path {
			return g.Tasks[id]
		}
	}
	return nil
}

func TestBuild_DependencyScopeResolution(t *testing.T) {
	doc := &Document{
		Project: ProjectDoc{Name: "P", Start: "2026-01-01T00:00:00Z", End: "2026-06-01T00:00:00Z"},
		Tasks: []TaskDoc{
			{
				Name: "phase1",
				Kind: "milestone",
				Children: []TaskDoc{
					{Name: "a", Kind: "milestone"},
					{
						Name: "b", Kind: "milestone",
						Depends: []DependencyDoc{{Target: "!a"}},
					},
				},
			},
			{
				Name: "phase2",
				Kind: "milestone",
				Depends: []DependencyDoc{{Target: "!!phase1"}},
			},
		},
	}
	g, err := Build(doc)
	require.NoError(t, err)

	var b, phase2 *domain.Task
	for _, id := range g.TaskOrder {
		t := g.Tasks[id]
		switch t.DotPath {
		case "phase1.b":
			b = t
		case "phase2":
			phase2 = t
		}
	}
	require.NotNil(t, b)
	require.Len(t, b.Depends, 1)
	require.NotNil(t, phase2)
	require.Len(t, phase2.Depends, 1)
}

func TestBuild_UnknownDependencyTargetFails(t *testing.T) {
	doc := &Document{
		Project: ProjectDoc{Name: "P", Start: "2026-01-01T00:00:00Z", End: "2026-06-01T00:00:00Z"},
		Tasks: []TaskDoc{
			{Name: "a", Kind: "milestone", Depends: []DependencyDoc{{Target: "nope"}}},
		},
	}
	_, err := Build(doc)
	assert.Error(t, err)
}

func TestBuild_DuplicateTaskPathFails(t *testing.T) {
	doc := &Document{
		Project: ProjectDoc{Name: "P", Start: "2026-01-01T00:00:00Z", End: "2026-06-01T00:00:00Z"},
		Tasks: []TaskDoc{
			{Name: "a", Kind: "milestone"},
			{Name: "a", Kind: "milestone"},
		},
	}
	_, err := Build(doc)
	assert.Error(t, err)
}

func TestBuild_ResourceGroupMembersResolve(t *testing.T) {
	doc := &Document{
		Project: ProjectDoc{Name: "P", Start: "2026-01-01T00:00:00Z", End: "2026-06-01T00:00:00Z"},
		Resources: []ResourceDoc{
			{Name: "alice"},
			{Name: "bob"},
			{Name: "devs", IsGroup: true, Members: []string{"alice", "bob"}},
		},
		Tasks: []TaskDoc{
			{Name: "t", Kind: "effort", Effort: 4, Allocations: []AllocationDoc{{Resources: []string{"devs"}}}},
		},
	}
	g, err := Build(doc)
	require.NoError(t, err)

	var group *domain.Resource
	for _, r := range g.Resources {
		if r.Name == "devs" {
			group = r
		}
	}
	require.NotNil(t, group)
	leaves := g.ResourceLeaves(group.ID)
	assert.Len(t, leaves, 2)
}

func TestBuild_InvalidCalendarReferenceFails(t *testing.T) {
	doc := &Document{
		Project: ProjectDoc{Name: "P", Start: "2026-01-01T00:00:00Z", End: "2026-06-01T00:00:00Z", Calendar: "nope"},
		Tasks:   []TaskDoc{{Name: "a", Kind: "milestone"}},
	}
	_, err := Build(doc)
	assert.Error(t, err)
}
