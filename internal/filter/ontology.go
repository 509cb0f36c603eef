package filter

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"cellhub/pkg/models"
)

// newCollator returns a case-insensitive English collator. Collators keep
// internal buffers, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// CompareLabels orders two labels case-insensitively using locale-aware
// collation.
func CompareLabels(a, b string) int {
	return newCollator().CompareString(a, b)
}

// LabelComparator returns a comparison function for sorting many labels.
// The function is not safe for concurrent use.
func LabelComparator() func(a, b string) int {
	return newCollator().CompareString
}

// CompareOntologies orders two ontologies by label.
func CompareOntologies(a, b models.Ontology) int {
	return CompareLabels(a.Label, b.Label)
}

// SortOntologies sorts ontologies in place by label, ascending and case
// insensitive. Equal labels keep their relative order.
func SortOntologies(ontologies []models.Ontology) []models.Ontology {
	c := newCollator()
	slices.SortStableFunc(ontologies, func(a, b models.Ontology) int {
		return c.CompareString(a.Label, b.Label)
	})
	return ontologies
}

// SortLabels sorts plain labels in place the same way SortOntologies does.
func SortLabels(labels []string) []string {
	c := newCollator()
	slices.SortStableFunc(labels, c.CompareString)
	return labels
}

// UniqueOntologies returns one ontology per distinct label, keeping the first
// occurrence and first-occurrence order.
func UniqueOntologies(ontologies []models.Ontology) []models.Ontology {
	seen := make(map[string]struct{}, len(ontologies))
	out := make([]models.Ontology, 0, len(ontologies))
	for _, o := range ontologies {
		if _, ok := seen[o.Label]; ok {
			continue
		}
		seen[o.Label] = struct{}{}
		out = append(out, o)
	}
	return out
}

// SortPrimaryData sorts primary data values in plain string order.
func SortPrimaryData(values []models.IsPrimaryData) []models.IsPrimaryData {
	slices.Sort(values)
	return values
}

// sortCategoryValues sorts every category list of a row in place.
func sortCategoryValues(c *models.Categories) {
	for _, key := range models.OntologyCategoryKeys {
		c.SetOntologies(key, SortOntologies(c.Ontologies(key)))
	}
	c.IsPrimaryData = SortPrimaryData(c.IsPrimaryData)
}
