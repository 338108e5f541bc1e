package vssrevision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func name(index, physical string) FullName {
	return FullName{Name: index, IndexName: index, PhysicalName: physical}
}

func TestAddItemKeepsIndexNameOrder(t *testing.T) {
	idx := &ProjectIndex{}
	idx.AddItem(name("charlie", "CCCCCCCC"))
	idx.AddItem(name("alpha", "AAAAAAAA"))
	idx.AddItem(name("bravo", "BBBBBBBB"))

	assert.Equal(t, 3, idx.Len())
	got0, _ := idx.Get(0)
	got1, _ := idx.Get(1)
	got2, _ := idx.Get(2)
	assert.Equal(t, "alpha", got0.Name)
	assert.Equal(t, "bravo", got1.Name)
	assert.Equal(t, "charlie", got2.Name)
}

func TestAddItemDuplicateNameInsertsAtLeftOfRun(t *testing.T) {
	idx := &ProjectIndex{}
	idx.AddItem(name("same", "AAAAAAAA"))
	pos := idx.AddItem(name("same", "BBBBBBBB"))
	assert.Equal(t, 0, pos)

	got1, _ := idx.Get(1)
	assert.Equal(t, "AAAAAAAA", got1.PhysicalName)
}

func TestFindItemRequiresPhysicalMatch(t *testing.T) {
	idx := &ProjectIndex{}
	idx.AddItem(name("file.txt", "AAAAAAAA"))

	assert.Equal(t, 0, idx.FindItem(name("file.txt", "AAAAAAAA")))
	assert.Equal(t, -1, idx.FindItem(name("file.txt", "ZZZZZZZZ")))
	assert.Equal(t, -1, idx.FindItem(name("nope.txt", "AAAAAAAA")))
}

func TestRemoveItem(t *testing.T) {
	idx := &ProjectIndex{}
	idx.AddItem(name("a", "AAAAAAAA"))
	idx.AddItem(name("b", "BBBBBBBB"))

	removedIdx, ok := idx.RemoveItem(name("a", "AAAAAAAA"))
	assert.True(t, ok)
	assert.Equal(t, 0, removedIdx)
	assert.Equal(t, 1, idx.Len())

	_, ok = idx.RemoveItem(name("a", "AAAAAAAA"))
	assert.False(t, ok)
}

func TestInsertItemAtFixedIndex(t *testing.T) {
	idx := &ProjectIndex{}
	idx.AddItem(name("a", "AAAAAAAA"))
	idx.AddItem(name("z", "ZZZZZZZZ"))

	idx.InsertItem(1, name("branched", "NNNNNNNN"))
	got, _ := idx.Get(1)
	assert.Equal(t, "branched", got.Name)
}
