package bitcask

import (
	"bytes"

	"github.com/google/btree"
)

// keydirDegree is the btree branching factor; unremarkable for an
// in-memory index of this size.
const keydirDegree = 32

// keydirItem is one entry of the KeyDir: a key and the (offset, length)
// of its current value in the log.
type keydirItem struct {
	key    []byte
	pos    int64
	length int32
}

func (a *keydirItem) Less(than btree.Item) bool {
	return bytes.Compare(a.key, than.(*keydirItem).key) < 0
}

// KeyDir is the in-memory index mapping each live key to the location
// of its current value in the log. It supports point lookup plus
// ordered forward and reverse traversal, which a plain map cannot do.
type KeyDir struct {
	tree *btree.BTree
}

func newKeyDir() *KeyDir {
	return &KeyDir{tree: btree.New(keydirDegree)}
}

func (d *KeyDir) set(key []byte, pos int64, length int32) {
	owned := append([]byte(nil), key...)
	d.tree.ReplaceOrInsert(&keydirItem{key: owned, pos: pos, length: length})
}

// delete removes key and reports whether it was present.
func (d *KeyDir) delete(key []byte) bool {
	return d.tree.Delete(&keydirItem{key: key}) != nil
}

func (d *KeyDir) get(key []byte) (*keydirItem, bool) {
	item := d.tree.Get(&keydirItem{key: key})
	if item == nil {
		return nil, false
	}
	return item.(*keydirItem), true
}

func (d *KeyDir) len() int {
	return d.tree.Len()
}

func withinLower(key []byte, b *Bound) bool {
	if b == nil {
		return true
	}
	c := bytes.Compare(key, b.Key)
	if b.Inclusive {
		return c >= 0
	}
	return c > 0
}

func withinUpper(key []byte, b *Bound) bool {
	if b == nil {
		return true
	}
	c := bytes.Compare(key, b.Key)
	if b.Inclusive {
		return c <= 0
	}
	return c < 0
}

// ascend visits every item in [lower, upper] in ascending key order,
// stopping as soon as an item exceeds upper.
func (d *KeyDir) ascend(lower, upper *Bound, fn func(*keydirItem) bool) {
	visit := func(it btree.Item) bool {
		e := it.(*keydirItem)
		if !withinUpper(e.key, upper) {
			return false
		}
		if !withinLower(e.key, lower) {
			return true
		}
		return fn(e)
	}

	if lower != nil {
		d.tree.AscendGreaterOrEqual(&keydirItem{key: lower.Key}, visit)
	} else {
		d.tree.Ascend(visit)
	}
}

// descend visits every item in [lower, upper] in descending key order,
// stopping as soon as an item falls below lower.
func (d *KeyDir) descend(lower, upper *Bound, fn func(*keydirItem) bool) {
	visit := func(it btree.Item) bool {
		e := it.(*keydirItem)
		if !withinLower(e.key, lower) {
			return false
		}
		if !withinUpper(e.key, upper) {
			return true
		}
		return fn(e)
	}

	if upper != nil {
		d.tree.DescendLessOrEqual(&keydirItem{key: upper.Key}, visit)
	} else {
		d.tree.Descend(visit)
	}
}
