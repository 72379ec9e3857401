package bitcask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(items []*keydirItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = string(item.key)
	}
	return out
}

func TestKeyDirOrdering(t *testing.T) {
	kd := newKeyDir()
	kd.set([]byte("b"), 0, 1)
	kd.set([]byte("a"), 0, 1)
	kd.set([]byte("c"), 0, 1)

	var ascending []*keydirItem
	kd.ascend(nil, nil, func(item *keydirItem) bool {
		ascending = append(ascending, item)
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, keysOf(ascending))

	var descending []*keydirItem
	kd.descend(nil, nil, func(item *keydirItem) bool {
		descending = append(descending, item)
		return true
	})
	assert.Equal(t, []string{"c", "b", "a"}, keysOf(descending))
}

func TestKeyDirSetOverwritesAndDeleteRemoves(t *testing.T) {
	kd := newKeyDir()
	kd.set([]byte("k"), 10, 5)
	kd.set([]byte("k"), 20, 7)

	item, ok := kd.get([]byte("k"))
	require.True(t, ok)
	assert.Equal(t, int64(20), item.pos)
	assert.Equal(t, int32(7), item.length)
	assert.Equal(t, 1, kd.len())

	assert.True(t, kd.delete([]byte("k")))
	assert.False(t, kd.delete([]byte("k")))

	_, ok = kd.get([]byte("k"))
	assert.False(t, ok)
	assert.Equal(t, 0, kd.len())
}

func TestKeyDirBoundedAscend(t *testing.T) {
	kd := newKeyDir()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		kd.set([]byte(k), 0, 0)
	}

	var got []string
	kd.ascend(&Bound{Key: []byte("b"), Inclusive: false}, &Bound{Key: []byte("d"), Inclusive: true}, func(item *keydirItem) bool {
		got = append(got, string(item.key))
		return true
	})
	assert.Equal(t, []string{"c", "d"}, got)
}

func TestKeyDirBoundedDescend(t *testing.T) {
	kd := newKeyDir()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		kd.set([]byte(k), 0, 0)
	}

	var got []string
	kd.descend(&Bound{Key: []byte("b"), Inclusive: true}, &Bound{Key: []byte("d"), Inclusive: false}, func(item *keydirItem) bool {
		got = append(got, string(item.key))
		return true
	})
	assert.Equal(t, []string{"c", "b"}, got)
}
