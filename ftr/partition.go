package ftr

// Partition is a contiguous range of active elements estimated by one
// worker. Workers own disjoint ranges, so the writes into the error and
// pair arrays never overlap.
type Partition struct {
	ID          int
	Start       int // first active element
	NumElements int
}

// End is one past the last element of the partition
func (p Partition) End() int { return p.Start + p.NumElements }

// PartitionLayout splits K active elements into contiguous partitions
type PartitionLayout struct {
	Partitions    []Partition
	TotalElements int
	NumPartitions int
	EToP          []int // element k belongs to partition EToP[k]
}

// NewPartitionLayout balances K elements over at most nparts partitions;
// sizes differ by at most one and no partition is empty
func NewPartitionLayout(K, nparts int) *PartitionLayout {
	if nparts < 1 {
		nparts = 1
	}
	if nparts > K {
		nparts = K
	}
	pl := &PartitionLayout{
		TotalElements: K,
		NumPartitions: nparts,
		EToP:          make([]int, K),
	}
	if K == 0 {
		pl.NumPartitions = 0
		return pl
	}
	base, extra := K/nparts, K%nparts
	start := 0
	for p := 0; p < nparts; p++ {
		n := base
		if p < extra {
			n++
		}
		pl.Partitions = append(pl.Partitions, Partition{ID: p, Start: start, NumElements: n})
		for k := start; k < start+n; k++ {
			pl.EToP[k] = p
		}
		start += n
	}
	return pl
}
