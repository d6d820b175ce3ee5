package reconcile

// Allocator hands out the smallest unused positive priority within one parent scope.
// Every value it returns is marked in use, so a single Allocator never repeats itself
// and never collides with the priorities it was seeded with.
//
// An Allocator is not safe for concurrent use; allocate one per parent.
type Allocator struct {
	inUse map[int]struct{}
	next  int
}

// NewAllocator returns an allocator seeded with the priorities already held by
// existing records of the parent. Values below 1 are ignored.
func NewAllocator(inUse []int) *Allocator {
	set := make(map[int]struct{}, len(inUse))
	for _, p := range inUse {
		if p >= 1 {
			set[p] = struct{}{}
		}
	}
	return &Allocator{inUse: set, next: 1}
}

// Next returns the smallest positive priority not yet in use and reserves it.
func (a *Allocator) Next() int {
	// Every value below a.next is taken: it was either seeded or returned earlier.
	p := a.next
	for {
		if _, taken := a.inUse[p]; !taken {
			break
		}
		p++
	}
	a.inUse[p] = struct{}{}
	a.next = p + 1
	return p
}

// Assign allocates one priority per distinct key, in the order given.
// Repeated keys receive the priority of their first occurrence.
func (a *Allocator) Assign(keys []Key) map[Key]int {
	assigned := make(map[Key]int, len(keys))
	for _, k := range keys {
		if _, ok := assigned[k]; ok {
			continue
		}
		assigned[k] = a.Next()
	}
	return assigned
}

// AllocatePriorities returns count priorities that collide neither with inUse nor
// with each other, smallest first.
func AllocatePriorities(inUse []int, count int) []int {
	a := NewAllocator(inUse)
	out := make([]int, count)
	for i := range out {
		out[i] = a.Next()
	}
	return out
}
