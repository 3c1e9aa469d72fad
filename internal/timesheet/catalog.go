package timesheet

import (
	"slices"

	"github.com/sadopc/suivi/internal/store"
)

// Catalog holds the option lists a grid row may draw from.
type Catalog struct {
	Clients        []string `json:"clients"`
	Activities     []string `json:"activities"`
	AbsenceReasons []string `json:"absenceReasons"`
	Positions      []string `json:"positions"`
	InternalClient string   `json:"internalClient"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		Clients: []string{
			"Bouygues", "AFD", "Orange", "Free", "SFR", "Ericson", "TDF", "SNCF",
			"Autres clients France", "ARCEP Burkina", "Orange Sénégal", "ARCEP Togo",
			"Togocell - YAS", "Lillybelle Togo", "ARTP Sénégal", "Autres clients export",
		},
		Activities: []string{
			"Support de maintenance", "Service projet", "Avant-vente",
			"Supply chain", "Commercial", "interne",
		},
		AbsenceReasons: []string{"congés", "maladie", "récupération", "formation"},
		Positions: []string{
			"Développeur Senior", "Développeur Junior", "Chef de Projet", "Commercial",
			"Responsable RH", "Comptable", "Chef d'équipe", "Analyste", "Consultant",
			"Manager", "Autre",
		},
		InternalClient: "interne",
	}
}

// Normalize forces the internal client on absent rows.
func (c Catalog) Normalize(r AllocationRow) AllocationRow {
	if r.Classification == Absent {
		r.Client = c.InternalClient
	}
	return r
}

// IsAbsence reports whether a stored entry was written by an absent row.
func (c Catalog) IsAbsence(a store.Activity) bool {
	return a.Client == c.InternalClient && slices.Contains(c.AbsenceReasons, a.Activity)
}

// ActivitiesFor returns the activity options of a classification.
func (c Catalog) ActivitiesFor(class Classification) []string {
	if class == Absent {
		return c.AbsenceReasons
	}
	return c.Activities
}

func (c Catalog) HasPosition(p string) bool {
	return slices.Contains(c.Positions, p)
}

// CheckRows rejects rows whose client or activity is outside the catalog.
// Empty fields are left to RowsToDayRecords.
func (c Catalog) CheckRows(rows []AllocationRow) error {
	for i, r := range rows {
		switch r.Classification {
		case Present:
			if r.Client != "" && !slices.Contains(c.Clients, r.Client) {
				return &ValidationError{Kind: KindInvalidOption, Row: i, Field: "client", Value: r.Client}
			}
		case Absent:
			if r.Client != "" && r.Client != c.InternalClient {
				return &ValidationError{Kind: KindInvalidOption, Row: i, Field: "client", Value: r.Client}
			}
		}
		if r.Activity != "" && r.Classification != "" && !slices.Contains(c.ActivitiesFor(r.Classification), r.Activity) {
			return &ValidationError{Kind: KindInvalidOption, Row: i, Field: "activity", Value: r.Activity}
		}
	}
	return nil
}
