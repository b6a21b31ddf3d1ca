package search

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/BrainPreserve/supplements/internal/dataset"
)

// FlagsSatisfied reports whether every selected flag column is truthy on r.
// An empty selection always passes.
func FlagsSatisfied(r dataset.Record, flags []string) bool {
	for _, f := range flags {
		if !r.Flag(f) {
			return false
		}
	}
	return true
}

// FlagIndex keeps one bitmap of record positions per flag column. It is
// built once and only read afterwards.
type FlagIndex struct {
	records []dataset.Record
	bitmaps map[string]*roaring.Bitmap
}

// NewFlagIndex indexes cols over records.
func NewFlagIndex(records []dataset.Record, cols []string) *FlagIndex {
	ix := &FlagIndex{
		records: records,
		bitmaps: make(map[string]*roaring.Bitmap, len(cols)),
	}
	for _, col := range cols {
		if _, ok := ix.bitmaps[col]; ok {
			continue
		}
		ix.bitmaps[col] = ix.scan(col)
	}
	return ix
}

func (ix *FlagIndex) scan(col string) *roaring.Bitmap {
	bm := roaring.New()
	for i, r := range ix.records {
		if r.Flag(col) {
			bm.Add(uint32(i))
		}
	}
	bm.RunOptimize()
	return bm
}

// Count returns how many records have col set.
func (ix *FlagIndex) Count(col string) uint64 {
	if bm, ok := ix.bitmaps[col]; ok {
		return bm.GetCardinality()
	}
	return ix.scan(col).GetCardinality()
}

// Candidates returns the positions of records satisfying every flag in
// flags. Columns that were not indexed are scanned on demand.
func (ix *FlagIndex) Candidates(flags []string) *roaring.Bitmap {
	out := roaring.New()
	out.AddRange(0, uint64(len(ix.records)))

	for _, f := range flags {
		bm, ok := ix.bitmaps[f]
		if !ok {
			bm = ix.scan(f)
		}
		out.And(bm)
		if out.IsEmpty() {
			break
		}
	}
	return out
}
