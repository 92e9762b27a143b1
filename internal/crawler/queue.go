package crawler

import (
	"container/heap"

	"github.com/v0xg/flowscout/internal/model"
)

// frontier is a min-heap of queue items ordered by priority, then by
// insertion so equal priorities are visited first-in first-out
type frontier struct {
	items []queued
	seq   int
}

type queued struct {
	item model.CrawlQueueItem
	seq  int
}

func (f *frontier) Len() int { return len(f.items) }

func (f *frontier) Less(i, j int) bool {
	a, b := f.items[i], f.items[j]
	if a.item.Priority != b.item.Priority {
		return a.item.Priority < b.item.Priority
	}
	return a.seq < b.seq
}

func (f *frontier) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier) Push(x any) { f.items = append(f.items, x.(queued)) }

func (f *frontier) Pop() any {
	old := f.items
	n := len(old)
	it := old[n-1]
	f.items = old[:n-1]
	return it
}

func (f *frontier) push(item model.CrawlQueueItem) {
	f.seq++
	heap.Push(f, queued{item: item, seq: f.seq})
}

func (f *frontier) pop() model.CrawlQueueItem {
	return heap.Pop(f).(queued).item
}
