package collector

import (
	"cmp"
	"container/heap"
	"slices"
)

// byRamDesc orders processes largest memory first, lower pid first on ties.
func byRamDesc(a, b Process) int {
	if c := CompareByRam(b, a); c != 0 {
		return c
	}
	return cmp.Compare(a.Pid(), b.Pid())
}

type topNHeap []Process

func (h topNHeap) Len() int {
	return len(h)
}

// Less implements Min-Heap: the root is the entry to evict first.
func (h topNHeap) Less(i, j int) bool {
	return byRamDesc(h[i], h[j]) > 0
}

func (h topNHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *topNHeap) Push(x any) {
	*h = append(*h, x.(Process))
}

func (h *topNHeap) Pop() any {
	old := *h
	n := old.Len()
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// pushTopN maintains a heap of fixed size N.
func pushTopN(h *topNHeap, n int, p Process) {
	if n <= 0 {
		return
	}
	if h.Len() < n {
		heap.Push(h, p)
		return
	}

	// Only replace if the new entry outranks the smallest
	if byRamDesc(p, (*h)[0]) < 0 {
		(*h)[0] = p
		heap.Fix(h, 0)
	}
}

// popAllSortedDesc flattens the heap into a slice, largest first.
func popAllSortedDesc(h *topNHeap) []Process {
	out := make([]Process, 0, h.Len())
	for h.Len() > 0 {
		out = append(out, heap.Pop(h).(Process))
	}
	slices.SortFunc(out, byRamDesc)
	return out
}

// topByRam returns the n largest processes, or all of them when n is 0.
// procs may be reordered.
func topByRam(procs []Process, n int) []Process {
	if n <= 0 || n >= len(procs) {
		slices.SortFunc(procs, byRamDesc)
		return procs
	}

	h := make(topNHeap, 0, n)
	for _, p := range procs {
		pushTopN(&h, n, p)
	}
	return popAllSortedDesc(&h)
}
