package models

// CategoryKey names one faceted dimension of a dataset or collection.
type CategoryKey string

const (
	CategoryAssay         CategoryKey = "assay"
	CategoryCellType      CategoryKey = "cell_type"
	CategoryDisease       CategoryKey = "disease"
	CategoryIsPrimaryData CategoryKey = "is_primary_data"
	CategoryOrganism      CategoryKey = "organism"
	CategorySex           CategoryKey = "sex"
	CategoryTissue        CategoryKey = "tissue"
)

// OntologyCategoryKeys lists the ontology-valued categories, in display order.
var OntologyCategoryKeys = []CategoryKey{
	CategoryAssay,
	CategoryCellType,
	CategoryDisease,
	CategoryOrganism,
	CategorySex,
	CategoryTissue,
}

// CategoryKeys lists every filterable category.
var CategoryKeys = append(append([]CategoryKey{}, OntologyCategoryKeys...), CategoryIsPrimaryData)

// ParseCategoryKey reports whether s names a known category.
func ParseCategoryKey(s string) (CategoryKey, bool) {
	for _, k := range CategoryKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// OntologyCategories holds the six ontology lists shared by dataset
// responses and the row view models built from them.
type OntologyCategories struct {
	Assay    []Ontology `json:"assay"`
	CellType []Ontology `json:"cell_type"`
	Disease  []Ontology `json:"disease"`
	Organism []Ontology `json:"organism"`
	Sex      []Ontology `json:"sex"`
	Tissue   []Ontology `json:"tissue"`
}

// Ontologies returns the list stored under key, or nil for a key that is
// not ontology-valued.
func (c OntologyCategories) Ontologies(key CategoryKey) []Ontology {
	switch key {
	case CategoryAssay:
		return c.Assay
	case CategoryCellType:
		return c.CellType
	case CategoryDisease:
		return c.Disease
	case CategoryOrganism:
		return c.Organism
	case CategorySex:
		return c.Sex
	case CategoryTissue:
		return c.Tissue
	}
	return nil
}

// SetOntologies replaces the list stored under key. Unknown keys are ignored.
func (c *OntologyCategories) SetOntologies(key CategoryKey, v []Ontology) {
	switch key {
	case CategoryAssay:
		c.Assay = v
	case CategoryCellType:
		c.CellType = v
	case CategoryDisease:
		c.Disease = v
	case CategoryOrganism:
		c.Organism = v
	case CategorySex:
		c.Sex = v
	case CategoryTissue:
		c.Tissue = v
	}
}

// Categories is the filterable part of a row: ontology lists plus the
// expanded primary data set.
type Categories struct {
	OntologyCategories
	IsPrimaryData []IsPrimaryData `json:"is_primary_data"`
}

// CategoryValues returns the labels a row carries for key.
func (c Categories) CategoryValues(key CategoryKey) []string {
	if key == CategoryIsPrimaryData {
		out := make([]string, 0, len(c.IsPrimaryData))
		for _, v := range c.IsPrimaryData {
			out = append(out, string(v))
		}
		return out
	}
	ontologies := c.Ontologies(key)
	out := make([]string, 0, len(ontologies))
	for _, o := range ontologies {
		out = append(out, o.Label)
	}
	return out
}
