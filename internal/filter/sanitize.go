package filter

import "cellhub/pkg/models"

// SanitizeDataset fills in defaults for missing filterable values: absent
// ontology lists become empty lists. An absent is_primary_data decodes to
// PrimaryDataNone, the empty sentinel. The input is not modified.
func SanitizeDataset(dataset models.DatasetResponse) models.DatasetResponse {
	out := dataset
	for _, key := range models.OntologyCategoryKeys {
		values := dataset.Ontologies(key)
		if values == nil {
			out.SetOntologies(key, []models.Ontology{})
			continue
		}
		// copy so later sorting never reaches back into the caller's slice
		out.SetOntologies(key, append([]models.Ontology(nil), values...))
	}
	return out
}

// SanitizeDatasets applies SanitizeDataset to every record.
func SanitizeDatasets(datasets []models.DatasetResponse) []models.DatasetResponse {
	out := make([]models.DatasetResponse, 0, len(datasets))
	for _, d := range datasets {
		out = append(out, SanitizeDataset(d))
	}
	return out
}
