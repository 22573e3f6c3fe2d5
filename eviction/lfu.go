package eviction

// lfuNode is one key with its access count.
type lfuNode struct {
	key  string
	freq int
}

// lfu buckets keys by access frequency. minFreq tracks the smallest
// frequency currently present so eviction never scans all buckets.
type lfu struct {
	nodes   map[string]*lfuNode
	freqMap map[int]map[string]*lfuNode
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		nodes:   make(map[string]*lfuNode),
		freqMap: make(map[int]map[string]*lfuNode),
	}
}

// OnGet bumps the key to the next frequency bucket.
func (l *lfu) OnGet(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}

	old := n.freq
	n.freq++

	delete(l.freqMap[old], k)
	if len(l.freqMap[old]) == 0 {
		delete(l.freqMap, old)
		if l.minFreq == old {
			l.minFreq++
		}
	}

	if l.freqMap[n.freq] == nil {
		l.freqMap[n.freq] = make(map[string]*lfuNode)
	}
	l.freqMap[n.freq][k] = n
}

// OnPut starts tracking a new key at frequency 1.
func (l *lfu) OnPut(k string) {
	if _, ok := l.nodes[k]; ok {
		return
	}

	n := &lfuNode{key: k, freq: 1}
	l.nodes[k] = n

	if l.freqMap[1] == nil {
		l.freqMap[1] = make(map[string]*lfuNode)
	}
	l.freqMap[1][k] = n
	l.minFreq = 1
}

// Evict removes a key from the lowest-frequency bucket. Ties are broken
// arbitrarily (map iteration order).
func (l *lfu) Evict() string {
	for k := range l.freqMap[l.minFreq] {
		delete(l.freqMap[l.minFreq], k)
		delete(l.nodes, k)
		return k
	}
	return ""
}

// Remove drops bookkeeping for an explicitly removed key.
func (l *lfu) Remove(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}
	delete(l.freqMap[n.freq], k)
	delete(l.nodes, k)
}
