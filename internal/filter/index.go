package filter

import "cellhub/pkg/models"

// CollectionIndex keys collections by id while remembering the order of the
// response they came from.
type CollectionIndex struct {
	order []string
	byID  map[string]models.CollectionResponse
}

// KeyCollectionsByID builds the collections lookup used to join datasets.
// Ids are expected to be unique; on a duplicate the later record replaces
// the earlier one but keeps the earlier position.
func KeyCollectionsByID(collections []models.CollectionResponse) *CollectionIndex {
	idx := &CollectionIndex{
		order: make([]string, 0, len(collections)),
		byID:  make(map[string]models.CollectionResponse, len(collections)),
	}
	for _, c := range collections {
		if _, ok := idx.byID[c.ID]; !ok {
			idx.order = append(idx.order, c.ID)
		}
		idx.byID[c.ID] = c
	}
	return idx
}

// Get looks up a collection. A miss means the dataset referencing id is an
// orphan, not an error.
func (idx *CollectionIndex) Get(id string) (models.CollectionResponse, bool) {
	if idx == nil {
		return models.CollectionResponse{}, false
	}
	c, ok := idx.byID[id]
	return c, ok
}

func (idx *CollectionIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.order)
}

// Collections returns the indexed collections in insertion order.
func (idx *CollectionIndex) Collections() []models.CollectionResponse {
	if idx == nil {
		return nil
	}
	out := make([]models.CollectionResponse, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.byID[id])
	}
	return out
}
