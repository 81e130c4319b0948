package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"classtrack/internal/analytics"
)

var exportHeader = []string{
	"Date", "Student Name", "Student Number", "Class", "Status",
	"Scan Time", "Late Minutes", "Notes",
}

func recordFields(r analytics.Row) []string {
	return []string{
		r.Date.Format("2006-01-02"),
		r.StudentName,
		r.StudentNumber,
		r.ClassName,
		string(r.Status),
		r.ScanTime.Format("15:04"),
		fmt.Sprintf("%d", r.LateMinutes),
		r.Notes,
	}
}

// WriteCSV streams attendance records as CSV.
func WriteCSV(w io.Writer, rows []analytics.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(recordFields(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
