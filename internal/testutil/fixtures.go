package testutil

import (
	"fmt"

	"github.com/eliomatters/matterhub/internal/domain/models"
)

// SampleDocuments returns n roster documents keyed doc-001..doc-n, each
// with the fields the default column schema expects.
func SampleDocuments(n int) map[string]models.Document {
	docs := make(map[string]models.Document, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("doc-%03d", i)
		docs[id] = models.Document{
			"name":           fmt.Sprintf("Delegate %d", i),
			"email":          fmt.Sprintf("delegate%d@example.org", i),
			"phone":          fmt.Sprintf("+1-555-01%02d", i),
			"school":         "Test Academy",
			"finalCommittee": "UNHRC",
		}
	}
	return docs
}

// SampleAttendance returns attendance for every ID in docs with day one
// marked present.
func SampleAttendance(docs map[string]models.Document) map[string]models.Attendance {
	recs := make(map[string]models.Attendance, len(docs))
	for id := range docs {
		recs[id] = models.Attendance{Day1: true, RecordedBy: "fixture"}
	}
	return recs
}
