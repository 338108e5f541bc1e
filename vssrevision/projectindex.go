package vssrevision

// ProjectIndex is a Project item's items_array: the ordered, index-name-sorted
// list of FullNames its revisions have added, still present at the current
// point of replay. It is rebuilt from scratch by walking a project's own
// revision chain forward (see BuildProjectRevisions / Revision.ApplyToProjectItems), the
// same way the original implementation threads vss_project_item_file's
// items_array through apply_to_project_items.
//
// Lookups use VSS's native sort order (case-insensitive short name): a
// bisection for the insertion point, then a linear scan across same-named
// entries for an exact physical-name match, mirroring find_item_index /
// find_item in the retrieved original source.
type ProjectIndex struct {
	entries []FullName
}

// Len returns the number of live entries.
func (p *ProjectIndex) Len() int { return len(p.entries) }

// Get returns the entry at idx, or false if idx is out of range.
func (p *ProjectIndex) Get(idx int) (FullName, bool) {
	if idx < 0 || idx >= len(p.entries) {
		return FullName{}, false
	}
	return p.entries[idx], true
}

// lowerBound returns the leftmost index at which indexName could be
// inserted without breaking the index-name ordering.
func (p *ProjectIndex) lowerBound(indexName string) int {
	lo, hi := 0, len(p.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if p.entries[mid].IndexName < indexName {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// FindItemIndex returns the index of fn if present (matched by index name
// AND physical name, since VSS allows multiple physical items to share one
// logical name transiently — e.g. across a delete/recreate); otherwise it
// returns the insertion point a subsequent AddItem(fn) would use.
func (p *ProjectIndex) FindItemIndex(fn FullName) int {
	bottom := p.lowerBound(fn.IndexName)
	for i := bottom; i < len(p.entries); i++ {
		if p.entries[i].IndexName != fn.IndexName {
			break
		}
		if p.entries[i].PhysicalName == fn.PhysicalName {
			return i
		}
	}
	return bottom
}

// FindItem returns the index of fn, or -1 if no entry matches both its index
// name and its physical name.
func (p *ProjectIndex) FindItem(fn FullName) int {
	idx := p.FindItemIndex(fn)
	if idx < len(p.entries) && p.entries[idx].IndexName == fn.IndexName && p.entries[idx].PhysicalName == fn.PhysicalName {
		return idx
	}
	return -1
}

// AddItem inserts fn at its sorted position and returns that index.
func (p *ProjectIndex) AddItem(fn FullName) int {
	return p.InsertItem(p.FindItemIndex(fn), fn)
}

// InsertItem inserts fn at the given index, regardless of sort order (used
// to restore a branched file at the index its source held).
func (p *ProjectIndex) InsertItem(idx int, fn FullName) int {
	p.entries = append(p.entries, FullName{})
	copy(p.entries[idx+1:], p.entries[idx:])
	p.entries[idx] = fn
	return idx
}

// RemoveItem removes fn's entry and reports its former index, or (-1, false)
// if it was not present.
func (p *ProjectIndex) RemoveItem(fn FullName) (int, bool) {
	idx := p.FindItem(fn)
	if idx < 0 {
		return idx, false
	}
	return p.RemoveItemByIdx(idx)
}

// RemoveItemByIdx removes the entry at idx.
func (p *ProjectIndex) RemoveItemByIdx(idx int) (int, bool) {
	if idx < 0 || idx >= len(p.entries) {
		return idx, false
	}
	p.entries = append(p.entries[:idx], p.entries[idx+1:]...)
	return idx, true
}
