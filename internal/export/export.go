// Package export renders the document as an XLSX workbook and reads student
// rosters from spreadsheets.
package export

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook, in order.
const (
	SheetStudents  = "Students"
	SheetSessions  = "Sessions"
	SheetBookings  = "Bookings"
	SheetAuditLogs = "AuditLogs"
	SheetSyncLogs  = "SyncLogs"
)

const timeLayout = time.RFC3339

// WriteWorkbook writes one sheet per collection of doc to w.
func WriteWorkbook(doc *domain.Document, w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("ERROR: Failed to close workbook: %v", err)
		}
	}()

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetStudents, studentRows(doc)},
		{SheetSessions, sessionRows(doc)},
		{SheetBookings, bookingRows(doc)},
		{SheetAuditLogs, auditRows(doc)},
		{SheetSyncLogs, syncRows(doc)},
	}
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}
		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet.name, r+1, err)
			}
		}
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func formatSchedule(entries []domain.ScheduleEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Day.String()[:3]+" "+e.Time.String())
	}
	return strings.Join(parts, ", ")
}

func studentRows(doc *domain.Document) [][]any {
	rows := [][]any{{"ID", "Name", "Phone", "Email", "Type", "Active", "Schedule", "Billing", "Created"}}
	for _, s := range doc.SortedStudents() {
		rows = append(rows, []any{s.ID, s.Name, s.Phone, s.Email, string(s.StudentType), s.Active,
			formatSchedule(s.WeeklySchedule), string(s.BillingStatus), formatTime(s.CreatedAt)})
	}
	return rows
}

func sessionRows(doc *domain.Document) [][]any {
	rows := [][]any{{"ID", "Date", "Start", "Duration", "Capacity", "Booked", "CalendarEvent", "Instructor"}}
	booked := map[string]int{}
	for _, b := range doc.Bookings {
		booked[b.SessionID]++
	}
	for _, s := range doc.SortedSessions() {
		rows = append(rows, []any{s.ID, string(s.Date), s.StartTime.String(), s.DurationMinutes, s.Capacity,
			booked[s.ID], s.CalendarEventID, s.InstructorID})
	}
	return rows
}

func bookingRows(doc *domain.Document) [][]any {
	rows := [][]any{{"ID", "Session", "Date", "Start", "Student", "StudentName", "Status", "Method", "CheckIn", "Justification", "RecordedBy", "Created"}}
	for _, b := range doc.SortedBookings() {
		sess := doc.Sessions[b.SessionID]
		checkIn := ""
		if b.CheckInTime != nil {
			checkIn = formatTime(*b.CheckInTime)
		}
		start := ""
		if sess.ID != "" {
			start = sess.StartTime.String()
		}
		rows = append(rows, []any{b.ID, b.SessionID, string(sess.Date), start, b.StudentID,
			doc.Students[b.StudentID].Name, string(b.Status), string(b.CheckInMethod), checkIn,
			b.Justification, b.RecordedBy, formatTime(b.CreatedAt)})
	}
	return rows
}

func auditRows(doc *domain.Document) [][]any {
	rows := [][]any{{"ID", "Timestamp", "User", "Action", "EntityType", "EntityID", "Student", "Details"}}
	for _, l := range doc.AuditLogs {
		rows = append(rows, []any{l.ID, formatTime(l.Timestamp), l.UserID, l.Action, l.EntityType, l.EntityID, l.StudentID, l.Details})
	}
	return rows
}

func syncRows(doc *domain.Document) [][]any {
	rows := [][]any{{"ID", "Timestamp", "User", "Entity", "Action", "CalendarEvent", "Status", "Message"}}
	for _, l := range doc.SyncLogs {
		rows = append(rows, []any{l.ID, formatTime(l.Timestamp), l.UserID, l.EntityID, string(l.Action), l.CalendarEventID, string(l.Status), l.Message})
	}
	return rows
}

// ReadStudents parses a roster spreadsheet. The first sheet must hold a header
// row followed by rows of ID, Name and optionally Phone and Email. Rows
// missing an ID or a name are skipped.
func ReadStudents(r io.Reader) ([]domain.Student, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("ERROR: Failed to close excel file: %v", err)
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	var students []domain.Student
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cell := func(n int) string {
			if len(row) > n {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		id, name := cell(0), cell(1)
		if id == "" || name == "" {
			log.Printf("WARN: Skipping roster row %d: missing id or name", i+1)
			continue
		}
		students = append(students, domain.Student{
			ID:    id,
			Name:  name,
			Phone: cell(2),
			Email: cell(3),
		})
	}
	return students, nil
}
