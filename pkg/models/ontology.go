package models

// Ontology is a controlled-vocabulary term as returned by the portal API,
// e.g. a tissue or disease term.
type Ontology struct {
	Label          string `json:"label"`
	OntologyTermID string `json:"ontology_term_id"`
}

// IsPrimaryData is the tri-state primary data flag of a dataset.
type IsPrimaryData string

const (
	PrimaryDataNone      IsPrimaryData = ""
	PrimaryDataPrimary   IsPrimaryData = "primary"
	PrimaryDataSecondary IsPrimaryData = "secondary"
	PrimaryDataBoth      IsPrimaryData = "both"
)
