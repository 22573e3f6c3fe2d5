package eviction

// fifo evicts keys in insertion order. The front of the queue is the
// oldest key; reads are ignored entirely.
type fifo struct {
	queue []string
	set   map[string]struct{}
}

func newFIFO() *fifo {
	return &fifo{
		queue: make([]string, 0),
		set:   make(map[string]struct{}),
	}
}

func (f *fifo) OnGet(string) {}

// OnPut records the key on first insertion only.
func (f *fifo) OnPut(k string) {
	if _, ok := f.set[k]; ok {
		return
	}
	f.queue = append(f.queue, k)
	f.set[k] = struct{}{}
}

// Evict removes and returns the oldest inserted key.
func (f *fifo) Evict() string {
	if len(f.queue) == 0 {
		return ""
	}
	k := f.queue[0]
	f.queue = f.queue[1:]
	delete(f.set, k)
	return k
}

// Remove drops bookkeeping for an explicitly removed key, preserving
// the order of the rest of the queue.
func (f *fifo) Remove(k string) {
	if _, ok := f.set[k]; !ok {
		return
	}
	delete(f.set, k)
	for i, v := range f.queue {
		if v == k {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			break
		}
	}
}
