package shard

import "hash/fnv"

// Selector decides which shard handles a given key. The cache does not
// care how; different strategies can be plugged in.
type Selector interface {
	Select(string, []*Shard) *Shard
}

// HashSelector assigns keys to shards by FNV-1a hash. The mapping is
// stable for the life of the process, which singleflight relies on:
// all concurrent callers for one key must land on the same shard.
type HashSelector struct{}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Select returns the shard owning the key.
func (HashSelector) Select(key string, shards []*Shard) *Shard {
	idx := int(hash(key)) % len(shards)
	return shards[idx]
}
