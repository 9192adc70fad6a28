// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import "container/heap"

// priorityHeap orders Pending entries by (gas_price desc, insertion_order
// asc), the priority index spec.md §4.5 specifies. No priority-queue library
// appears anywhere in the retrieval pack, so this uses stdlib
// container/heap (DESIGN.md justification).
type priorityHeap []PendingEntry

func (h priorityHeap) Len() int { return len(h) }

func (h priorityHeap) Less(i, j int) bool {
	if h[i].Tx.GasPrice != h[j].Tx.GasPrice {
		return h[i].Tx.GasPrice > h[j].Tx.GasPrice
	}
	return h[i].sequence < h[j].sequence
}

func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *priorityHeap) Push(x interface{}) {
	*h = append(*h, x.(PendingEntry))
}

func (h *priorityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// sorted returns a copy of h's entries in priority order without mutating h.
func (h priorityHeap) sorted() []PendingEntry {
	clone := make(priorityHeap, len(h))
	copy(clone, h)
	heap.Init(&clone)
	out := make([]PendingEntry, 0, len(clone))
	for clone.Len() > 0 {
		out = append(out, heap.Pop(&clone).(PendingEntry))
	}
	return out
}

// lowest returns the lowest-priority entry currently in h, for fee-based
// eviction. h must be non-empty.
func (h priorityHeap) lowest() PendingEntry {
	lowest := h[0]
	for _, e := range h[1:] {
		if e.Tx.GasPrice < lowest.Tx.GasPrice || (e.Tx.GasPrice == lowest.Tx.GasPrice && e.sequence > lowest.sequence) {
			lowest = e
		}
	}
	return lowest
}
