package filter

import (
	"github.com/RoaringBitmap/roaring"

	"cellhub/pkg/models"
)

// Categorized is a row carrying category values, such as DatasetRow or
// CollectionRow.
type Categorized interface {
	CategoryValues(key models.CategoryKey) []string
}

// Ranged is a row that can be filtered by cell count.
type Ranged interface {
	CellCountValue() (int64, bool)
}

// Range is an inclusive bound; a nil end is open.
type Range struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

func (r Range) contains(v int64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Selection is the filter state. Within a category a row matches when it
// has any selected value; categories combine with AND.
type Selection struct {
	Categories map[models.CategoryKey][]string `json:"categories,omitempty"`
	CellCount  *Range                          `json:"cell_count,omitempty"`
}

// IsEmpty reports whether the selection filters nothing out.
func (s Selection) IsEmpty() bool {
	if s.CellCount != nil {
		return false
	}
	for _, values := range s.Categories {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// FacetValue is one selectable value of a category with the number of rows
// it would match.
type FacetValue struct {
	Label    string `json:"label"`
	Count    uint64 `json:"count"`
	Selected bool   `json:"selected,omitempty"`
}

// FacetIndex holds per-category postings over a fixed row set.
type FacetIndex[T Categorized] struct {
	rows     []T
	all      *roaring.Bitmap
	postings map[models.CategoryKey]map[string]*roaring.Bitmap
}

// NewFacetIndex indexes rows; row positions are the bitmap members.
func NewFacetIndex[T Categorized](rows []T) *FacetIndex[T] {
	f := &FacetIndex[T]{
		rows:     rows,
		all:      roaring.New(),
		postings: make(map[models.CategoryKey]map[string]*roaring.Bitmap, len(models.CategoryKeys)),
	}
	f.all.AddRange(0, uint64(len(rows)))

	for _, key := range models.CategoryKeys {
		byValue := make(map[string]*roaring.Bitmap)
		for i, row := range rows {
			for _, v := range row.CategoryValues(key) {
				bm, ok := byValue[v]
				if !ok {
					bm = roaring.New()
					byValue[v] = bm
				}
				bm.Add(uint32(i))
			}
		}
		f.postings[key] = byValue
	}
	return f
}

// Len is the number of indexed rows.
func (f *FacetIndex[T]) Len() int { return len(f.rows) }

// Filter returns the rows matching sel, in their original order.
func (f *FacetIndex[T]) Filter(sel Selection) []T {
	match := f.match(sel, "")
	out := make([]T, 0, match.GetCardinality())
	it := match.Iterator()
	for it.HasNext() {
		out = append(out, f.rows[it.Next()])
	}
	return out
}

// Counts returns, for every category, each value present in the rows with
// the number of rows it matches given every other active filter. Values are
// sorted case-insensitively; selected values are always listed.
func (f *FacetIndex[T]) Counts(sel Selection) map[models.CategoryKey][]FacetValue {
	out := make(map[models.CategoryKey][]FacetValue, len(models.CategoryKeys))
	for _, key := range models.CategoryKeys {
		base := f.match(sel, key)
		selected := make(map[string]bool, len(sel.Categories[key]))
		for _, v := range sel.Categories[key] {
			selected[v] = true
		}

		labels := make([]string, 0, len(f.postings[key])+len(selected))
		for label := range f.postings[key] {
			labels = append(labels, label)
		}
		// a selection no row carries still needs an entry to be cleared from
		for label := range selected {
			if _, ok := f.postings[key][label]; !ok {
				labels = append(labels, label)
			}
		}
		SortLabels(labels)

		values := make([]FacetValue, 0, len(labels))
		for _, label := range labels {
			var n uint64
			if bm, ok := f.postings[key][label]; ok {
				n = roaring.And(base, bm).GetCardinality()
			}
			if n == 0 && !selected[label] {
				continue
			}
			values = append(values, FacetValue{Label: label, Count: n, Selected: selected[label]})
		}
		out[key] = values
	}
	return out
}

// match intersects every active filter except the category named by skip.
func (f *FacetIndex[T]) match(sel Selection, skip models.CategoryKey) *roaring.Bitmap {
	result := f.all.Clone()
	for key, values := range sel.Categories {
		if key == skip || len(values) == 0 {
			continue
		}
		some := roaring.New()
		for _, v := range values {
			if bm, ok := f.postings[key][v]; ok {
				some.Or(bm)
			}
		}
		result.And(some)
	}
	if sel.CellCount != nil {
		result.And(f.cellCountMatch(*sel.CellCount))
	}
	return result
}

// cellCountMatch selects rows whose cell count falls in r. Rows without a
// count are treated as zero cells; rows that are not Ranged never match.
func (f *FacetIndex[T]) cellCountMatch(r Range) *roaring.Bitmap {
	bm := roaring.New()
	for i, row := range f.rows {
		ranged, ok := any(row).(Ranged)
		if !ok {
			continue
		}
		v, _ := ranged.CellCountValue()
		if r.contains(v) {
			bm.Add(uint32(i))
		}
	}
	return bm
}
