package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuNode(id int64, parent int64) *Menu {
	m := &Menu{ID: id, Name: "menu"}
	if parent != 0 {
		m.ParentID = int64Ptr(parent)
	}
	return m
}

func ids(nodes []*Menu) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

// shape renders a forest as nested id lists for comparison
func shape(nodes []*Menu) []interface{} {
	out := make([]interface{}, len(nodes))
	for i, n := range nodes {
		if len(n.Children) == 0 {
			out[i] = n.ID
			continue
		}
		out[i] = []interface{}{n.ID, shape(n.Children)}
	}
	return out
}

func TestBuildTree(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, BuildTree(nil))
	})

	t.Run("nests children in input order", func(t *testing.T) {
		flat := []*Menu{
			menuNode(5, 2),
			menuNode(1, 0),
			menuNode(2, 0),
			menuNode(3, 2),
			menuNode(4, 3),
		}
		forest := BuildTree(flat)

		require.Len(t, forest, 2)
		assert.Equal(t, []int64{1, 2}, ids(forest))
		assert.Empty(t, forest[0].Children)
		assert.Equal(t, []int64{5, 3}, ids(forest[1].Children))
		assert.Equal(t, []int64{4}, ids(forest[1].Children[1].Children))
	})

	t.Run("does not modify input", func(t *testing.T) {
		flat := []*Menu{menuNode(1, 0), menuNode(2, 1)}
		BuildTree(flat)
		assert.Nil(t, flat[0].Children)
		assert.Nil(t, flat[1].Children)
	})

	t.Run("orphans are excluded everywhere", func(t *testing.T) {
		flat := []*Menu{
			menuNode(1, 0),
			menuNode(2, 1),
			menuNode(3, 99), // parent does not exist
			menuNode(4, 3),  // child of the orphan
		}
		forest := BuildTree(flat)

		all := ids(FlattenTree(forest))
		assert.ElementsMatch(t, []int64{1, 2}, all)
		assert.NotContains(t, all, int64(3))
		assert.NotContains(t, all, int64(4))
		assert.Equal(t, []int64{3, 4}, ids(OrphanMenus(flat)))
	})

	t.Run("parent cycles are excluded", func(t *testing.T) {
		flat := []*Menu{
			menuNode(1, 0),
			menuNode(2, 3),
			menuNode(3, 2),
			menuNode(4, 4),
		}
		forest := BuildTree(flat)
		assert.Equal(t, []int64{1}, ids(FlattenTree(forest)))
		assert.ElementsMatch(t, []int64{2, 3, 4}, ids(OrphanMenus(flat)))
	})

	t.Run("rebuilding the flattened tree is isomorphic", func(t *testing.T) {
		flat := []*Menu{
			menuNode(1, 0),
			menuNode(2, 1),
			menuNode(3, 1),
			menuNode(4, 2),
			menuNode(5, 0),
			menuNode(6, 5),
		}
		first := BuildTree(flat)
		second := BuildTree(FlattenTree(first))
		third := BuildTree(FlattenTree(second))

		assert.Equal(t, shape(first), shape(second))
		assert.Equal(t, shape(second), shape(third))
	})

	t.Run("well formed input has no orphans", func(t *testing.T) {
		flat := []*Menu{menuNode(1, 0), menuNode(2, 1)}
		assert.Empty(t, OrphanMenus(flat))
	})
}
