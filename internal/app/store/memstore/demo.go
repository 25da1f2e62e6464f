package memstore

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/eliomatters/matterhub/internal/domain/models"
)

// DemoSampleCount is the fixed number of generated sample participants.
const DemoSampleCount = 10

var (
	demoNames = []string{
		"Arjun Sharma", "Priya Patel", "Rahul Gupta", "Ananya Singh",
		"Karthik Iyer", "Sneha Reddy", "Vikram Malhotra", "Riya Kapoor",
		"Aditya Jain", "Kavya Nair",
	}
	demoCommittees = []string{
		"UNHRC", "Lok Sabha", "UNGA-Disec", "UNCSW",
		"Continuous Crisis Committee", "International Press",
	}
	demoSchools = []string{
		"DPS RK Puram", "DPS Mathura Road", "Ryan International",
		"Modern School", "Delhi Public School", "Sanskriti School",
	}
	demoCountries = []string{"India", "USA", "China", "France", "UK", "Germany"}

	// All six presence patterns the generator cycles through.
	demoPatterns = [][3]bool{
		{true, true, true},
		{true, true, false},
		{true, false, true},
		{false, true, true},
		{true, false, false},
		{false, false, true},
	}
)

// DemoID returns the deterministic sample ID for index i (1-based).
func DemoID(i int) string {
	return fmt.Sprintf("demo-%03d", i)
}

// DemoRoster generates the fixed-size sample roster: deterministic IDs
// with randomized field values for realism.
func DemoRoster() map[string]models.Document {
	out := make(map[string]models.Document, DemoSampleCount)
	for i, name := range demoNames {
		id := DemoID(i + 1)
		out[id] = models.Document{
			"name":                 name,
			"email":                strings.ReplaceAll(strings.ToLower(name), " ", ".") + "@example.com",
			"phone":                fmt.Sprintf("+91 9%09d", rand.Intn(1_000_000_000)),
			"school":               pick(demoSchools),
			"customSchool":         "",
			"committeePreferences": pick(demoCommittees),
			"portfolioPreferences": "Delegate of " + pick(demoCountries),
			"dob": fmt.Sprintf("%d-%02d-%02d",
				2005+rand.Intn(4), 1+rand.Intn(12), 1+rand.Intn(28)),
			"finalCommittee":       pick(demoCommittees),
			"finalPortfolio":       "Delegate of " + pick(demoCountries),
			"screenshotURL":        "https://example.com/payment_screenshot.jpg",
			models.FieldUpdatedAt:  time.Now().UTC(),
		}
	}
	return out
}

// DemoAttendance generates sample attendance records matching the demo
// roster's IDs.
func DemoAttendance() map[string]models.Attendance {
	out := make(map[string]models.Attendance, DemoSampleCount)
	for i := 1; i <= DemoSampleCount; i++ {
		p := demoPatterns[rand.Intn(len(demoPatterns))]
		out[DemoID(i)] = models.Attendance{
			Day1:       p[0],
			Day2:       p[1],
			Day3:       p[2],
			UpdatedAt:  time.Now().UTC(),
			RecordedBy: "demo-user",
		}
	}
	return out
}

func pick(vals []string) string {
	return vals[rand.Intn(len(vals))]
}
