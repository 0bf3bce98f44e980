package memory

import (
	"github.com/google/btree"
	"github.com/orderdesk/orderdesk/pkg/model"
)

// indexItem is one (sort key, code) entry of a field index. value holds
// model.SortKey of the field, so the tree order matches model.CompareRecords.
type indexItem struct {
	value string
	code  string
}

// lessFunc orders entries by sort key first, then by code, so entries sharing
// a value keep a deterministic order.
func lessFunc(a, b indexItem) bool {
	if a.value != b.value {
		return a.value < b.value
	}
	return a.code < b.code
}

// fieldIndex keeps one btree per indexed field plus a reverse map for O(1)
// removal of a record's previous entry.
type fieldIndex struct {
	tree   *btree.BTreeG[indexItem]
	byCode map[string]string // code -> indexed sort key
}

func newFieldIndex() *fieldIndex {
	return &fieldIndex{
		tree:   btree.NewG[indexItem](32, lessFunc),
		byCode: make(map[string]string),
	}
}

func (idx *fieldIndex) upsert(code, raw string) {
	value := model.SortKey(raw)
	if old, ok := idx.byCode[code]; ok {
		if old == value {
			return
		}
		idx.tree.Delete(indexItem{value: old, code: code})
	}
	idx.tree.ReplaceOrInsert(indexItem{value: value, code: code})
	idx.byCode[code] = value
}

// descend walks entries from pivot downwards. A nil pivot starts at the
// largest entry. fn returns false to stop.
func (idx *fieldIndex) descend(pivot *indexItem, fn func(indexItem) bool) {
	if pivot == nil {
		idx.tree.Descend(fn)
		return
	}
	idx.tree.DescendLessOrEqual(*pivot, fn)
}

func (idx *fieldIndex) len() int {
	return len(idx.byCode)
}
