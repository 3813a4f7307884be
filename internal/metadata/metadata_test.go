package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_AddBuildsTree(t *testing.T) {
	root := New("root")
	stage := root.Add("drivers.las.reader")
	stage.AddValue("filename", "a.las", "source file")
	stage.AddValue("count", 120, "points in the file")

	children := root.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "drivers.las.reader", children[0].Name())

	leaves := stage.Children()
	require.Len(t, leaves, 2)
	assert.Equal(t, "filename", leaves[0].Name())
	assert.Equal(t, "a.las", leaves[0].Value())
	assert.Equal(t, "points in the file", leaves[1].Description())
}

func TestNode_FindChild(t *testing.T) {
	root := New("root")
	root.AddValue("spatialreference", "EPSG:26916", "")
	root.AddValue("comp_spatialreference", "COMPD_CS[...]", "")

	hit := root.FindChild(func(n *Node) bool { return n.Name() == "comp_spatialreference" })
	require.NotNil(t, hit)
	assert.Equal(t, "COMPD_CS[...]", hit.Value())

	miss := root.FindChild(func(n *Node) bool { return n.Name() == "absent" })
	assert.Nil(t, miss)
}

func TestNode_ChildrenIsSnapshot(t *testing.T) {
	root := New("root")
	root.AddValue("a", 1, "")
	snap := root.Children()
	root.AddValue("b", 2, "")

	assert.Len(t, snap, 1)
	assert.Len(t, root.Children(), 2)
}
