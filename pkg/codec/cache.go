package codec

// cacheEntry pairs a sample with the number of times it has been added to
// the Cache since it was last admitted.
type cacheEntry struct {
	key   Sample
	count int
}

// Cache is a frequency-ordered, fixed-capacity recency cache of samples.
// Entries are sorted by count, non-increasing; a freshly admitted or
// promoted entry moves ahead of every entry with a strictly smaller count
// and stops behind the entries whose count is equal or greater, so among
// equal counts the entry that reached that count first sits nearest the
// front. An entry's
// position in the cache is its "cache index" and is stable until the next
// mutation. Encoder and decoder must drive identical Caches with identical
// Add calls, or the wire format desynchronises.
type Cache struct {
	order    []cacheEntry
	capacity int
}

// NewCache creates an empty Cache with the given capacity.
func NewCache(capacity int) *Cache {
	return &Cache{
		order:    make([]cacheEntry, 0, capacity),
		capacity: capacity,
	}
}

// Len returns the number of entries currently held.
func (c *Cache) Len() int {
	return len(c.order)
}

// Index returns the cache index of v, or -1 if v is not present.
func (c *Cache) Index(v Sample) int {
	for i, e := range c.order {
		if e.key == v {
			return i
		}
	}
	return -1
}

// At returns the sample at cache index i. The caller must ensure
// 0 <= i < c.Len().
func (c *Cache) At(i int) Sample {
	return c.order[i].key
}

// Add admits or promotes v, maintaining the count-sorted,
// recency-tie-broken invariant described on Cache.
func (c *Cache) Add(v Sample) {
	idx := c.Index(v)
	if idx >= 0 {
		c.order[idx].count++
	} else {
		if len(c.order) >= c.capacity {
			// Evict the tail: lowest count, and among those the one that
			// reached that count most recently.
			c.order = c.order[:len(c.order)-1]
		}
		c.order = append(c.order, cacheEntry{key: v, count: 1})
		idx = len(c.order) - 1
	}

	count := c.order[idx].count

	// Walk leftward while the predecessor's count is strictly smaller,
	// then settle just after it: on a tie the freshly-touched entry stays
	// behind the entries that already had that count.
	newIdx := idx
	for newIdx > 0 && c.order[newIdx-1].count < count {
		newIdx--
	}
	if newIdx == idx {
		return
	}

	moved := c.order[idx]
	copy(c.order[newIdx+1:idx+1], c.order[newIdx:idx])
	c.order[newIdx] = moved
}
