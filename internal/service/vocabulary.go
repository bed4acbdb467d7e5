package service

import (
	"slices"

	"github.com/smartcity/incidentmap/internal/domain"
)

// BuildVocabularies derives the three dropdown vocabularies from a snapshot.
// Each list is strictly ascending, with empty values left out.
func BuildVocabularies(snapshot []domain.Incident) domain.Vocabularies {
	return domain.Vocabularies{
		District:  distinct(snapshot, domain.AttrDistrict),
		Complaint: distinct(snapshot, domain.AttrComplaint),
		CallType:  distinct(snapshot, domain.AttrCallType),
	}
}

func distinct(snapshot []domain.Incident, attr domain.Attribute) []string {
	values := make([]string, 0)
	for _, inc := range snapshot {
		if v := inc.Attribute(attr); v != "" {
			values = append(values, v)
		}
	}
	slices.Sort(values)
	return slices.Compact(values)
}
