package accel

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// HashTableConfig sizes the hash lookup tables.
type HashTableConfig struct {
	// Sets is the number of buckets shared by all tables.
	Sets int
	// Ways is the number of entries per bucket.
	Ways int
}

// DefaultHashTableConfig returns 1024 buckets of 4 entries.
func DefaultHashTableConfig() HashTableConfig {
	return HashTableConfig{Sets: 1024, Ways: 4}
}

// HashTables holds the 4 hash lookup tables as one set-associative
// directory. A key is its own tag; the table number and key bank sit
// above the 60 key bits so entries of different tables never alias.
type HashTables struct {
	config    HashTableConfig
	directory *akitacache.DirectoryImpl
	data      []uint32

	hits, misses, evictions uint64
}

// NewHashTables creates empty tables.
func NewHashTables(config HashTableConfig) *HashTables {
	return &HashTables{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			1,
			akitacache.NewLRUVictimFinder(),
		),
		data: make([]uint32, config.Sets*config.Ways),
	}
}

// HashKey builds the directory tag of key in table. bank is the
// source/destination key bank.
func HashKey(table int, bank bool, key uint64) uint64 {
	tag := uint64(table&3)<<62 | key&(1<<60-1)
	if bank {
		tag |= 1 << 61
	}
	return tag
}

func (t *HashTables) blockIndex(block *akitacache.Block) int {
	return block.SetID*t.config.Ways + block.WayID
}

// Lookup returns the data stored for tag.
func (t *HashTables) Lookup(tag uint64) (uint32, bool) {
	block := t.directory.Lookup(0, tag)
	if block == nil || !block.IsValid {
		t.misses++
		return 0, false
	}
	t.hits++
	t.directory.Visit(block)
	return t.data[t.blockIndex(block)], true
}

// Insert stores data for tag, replacing the least recently used entry
// of the bucket when it is full.
func (t *HashTables) Insert(tag uint64, data uint32) {
	block := t.directory.Lookup(0, tag)
	if block == nil || !block.IsValid {
		block = t.directory.FindVictim(tag)
		if block == nil {
			return
		}
		if block.IsValid {
			t.evictions++
		}
		block.Tag = tag
		block.IsValid = true
		block.IsDirty = false
	}
	t.data[t.blockIndex(block)] = data
	t.directory.Visit(block)
}

// Remove deletes tag from its table.
func (t *HashTables) Remove(tag uint64) {
	block := t.directory.Lookup(0, tag)
	if block != nil && block.IsValid {
		block.IsValid = false
	}
}

// HashTableStats are lookup counters.
type HashTableStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns lookup counters.
func (t *HashTables) Stats() HashTableStats {
	return HashTableStats{Hits: t.hits, Misses: t.misses, Evictions: t.evictions}
}

// Reset empties every table.
func (t *HashTables) Reset() {
	t.directory.Reset()
	clear(t.data)
	t.hits, t.misses, t.evictions = 0, 0, 0
}
