package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

// DefaultSchemaTag identifies the built-in seed roster.
const DefaultSchemaTag = "2024.05.25.05_PERSISTENCE_LOCKED"

// Migrate adds every seed student whose id is not already present, with a
// normalized display name, and records tag on the document. Existing records
// are never modified. It returns the number of students added.
func Migrate(doc *domain.Document, seed []domain.Student, tag string, now time.Time) int {
	doc.Normalize()
	added := addMissingStudents(doc, seed, now)
	doc.SchemaTag = tag
	return added
}

func addMissingStudents(doc *domain.Document, seed []domain.Student, now time.Time) int {
	added := 0
	for _, st := range seed {
		if st.ID == "" {
			continue
		}
		if _, ok := doc.Students[st.ID]; ok {
			continue
		}
		st.Name = domain.NormalizeName(st.Name)
		st.WeeklySchedule = domain.NormalizeSchedule(st.WeeklySchedule)
		if st.StudentType == "" {
			st.StudentType = domain.StudentFixed
		}
		if st.BillingStatus == "" {
			st.BillingStatus = domain.BillingNoInfo
		}
		if st.CreatedAt.IsZero() {
			st.CreatedAt = now
		}
		doc.Students[st.ID] = st
		added++
	}
	return added
}

// LoadSeedFile reads a JSON array of students.
func LoadSeedFile(path string) ([]domain.Student, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var students []domain.Student
	if err := json.Unmarshal(raw, &students); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return students, nil
}

// DefaultSeedStudents is the roster shipped with the build.
func DefaultSeedStudents() []domain.Student {
	at := func(day time.Weekday, hhmm string) domain.ScheduleEntry {
		return domain.ScheduleEntry{Day: day, Time: domain.MustTimeOfDay(hhmm)}
	}
	return []domain.Student{
		{
			ID: "seed-ana-paula", Name: "ANA PAULA DE SOUZA", StudentType: domain.StudentFixed, Active: true,
			WeeklySchedule: []domain.ScheduleEntry{at(time.Monday, "07:00"), at(time.Wednesday, "07:00"), at(time.Friday, "07:00")},
		},
		{
			ID: "seed-carlos-eduardo", Name: "carlos eduardo dos santos", StudentType: domain.StudentFixed, Active: true,
			WeeklySchedule: []domain.ScheduleEntry{at(time.Tuesday, "08:00"), at(time.Thursday, "08:00")},
		},
		{
			ID: "seed-maria-jose", Name: "  maria  jose da silva ", StudentType: domain.StudentFixed, Active: true,
			WeeklySchedule: []domain.ScheduleEntry{at(time.Monday, "18:00"), at(time.Wednesday, "18:00")},
		},
		{
			ID: "seed-joao-pedro", Name: "JOAO PEDRO E FILHOS", StudentType: domain.StudentPartnerPlan, Active: true,
			WeeklySchedule: []domain.ScheduleEntry{at(time.Tuesday, "17:00")},
		},
		{
			ID: "seed-beatriz", Name: "beatriz do carmo", StudentType: domain.StudentDropIn, Active: true,
		},
	}
}
