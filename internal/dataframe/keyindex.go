package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/cespare/xxhash/v2"
	"github.com/paveg/tidy/internal/series"
)

const (
	keyIndexCapacityFactor = 2
	keyIndexLoadFactor     = 0.75
	keyIndexGrowthFactor   = 2
)

// KeyIndex maps encoded row keys to the rows carrying them, and remembers
// the order in which distinct keys were first seen. Keys are produced by
// RowKey, so null, NaN and categorical values compare by value.
type KeyIndex struct {
	buckets  [][]keyEntry
	capacity int
	first    []int
}

type keyEntry struct {
	key  string
	rows []int
}

// NewKeyIndex creates an index sized for roughly estimatedSize distinct keys.
func NewKeyIndex(estimatedSize int) *KeyIndex {
	capacity := nextPowerOfTwo(estimatedSize * keyIndexCapacityFactor)
	return &KeyIndex{
		buckets:  make([][]keyEntry, capacity),
		capacity: capacity,
	}
}

// BuildKeyIndex indexes every row of cols.
func BuildKeyIndex(cols []arrow.Array, rows int) *KeyIndex {
	idx := NewKeyIndex(rows)
	var buf []byte
	for i := 0; i < rows; i++ {
		buf = RowKey(buf[:0], cols, i)
		idx.Put(string(buf), i)
	}
	return idx
}

// RowKey appends the encoded key of row i across cols to buf.
func RowKey(buf []byte, cols []arrow.Array, i int) []byte {
	for _, col := range cols {
		buf = series.AppendKey(buf, col, i)
	}
	return buf
}

// Put records row under key and reports whether key was new.
func (k *KeyIndex) Put(key string, row int) bool {
	b := k.bucket(key, k.capacity)
	for i := range k.buckets[b] {
		if k.buckets[b][i].key == key {
			k.buckets[b][i].rows = append(k.buckets[b][i].rows, row)
			return false
		}
	}

	k.buckets[b] = append(k.buckets[b], keyEntry{key: key, rows: []int{row}})
	k.first = append(k.first, row)

	if float64(len(k.first)) > float64(k.capacity)*keyIndexLoadFactor {
		k.resize()
	}
	return true
}

// Get returns the rows recorded under key.
func (k *KeyIndex) Get(key string) ([]int, bool) {
	for _, entry := range k.buckets[k.bucket(key, k.capacity)] {
		if entry.key == key {
			return entry.rows, true
		}
	}
	return nil, false
}

// Len returns the number of distinct keys.
func (k *KeyIndex) Len() int {
	return len(k.first)
}

// FirstRows returns, per distinct key in first-seen order, the first row
// recorded under it.
func (k *KeyIndex) FirstRows() []int {
	return append([]int(nil), k.first...)
}

func (k *KeyIndex) bucket(key string, capacity int) int {
	//nolint:gosec // capacity is a positive power of two
	return int(xxhash.Sum64String(key) & uint64(capacity-1))
}

// resize doubles the capacity and rehashes all entries.
func (k *KeyIndex) resize() {
	newCapacity := k.capacity * keyIndexGrowthFactor
	newBuckets := make([][]keyEntry, newCapacity)

	for _, bucket := range k.buckets {
		for _, entry := range bucket {
			b := k.bucket(entry.key, newCapacity)
			newBuckets[b] = append(newBuckets[b], entry)
		}
	}

	k.buckets = newBuckets
	k.capacity = newCapacity
}

// nextPowerOfTwo returns the next power of two >= n.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
