package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/claimtrack/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"claim_id", "claimant_id", "claimant_name", "status", "start_time", "end_time",
	"destinations", "tags",
	"expense_id", "description", "category", "amount", "currency",
	"occurred_at", "completed", "receipt",
}

// exportRow is the JSON shape of one export row. Empty expense fields are
// omitted for claims without expenses.
type exportRow struct {
	ClaimID      string     `json:"claimId"`
	ClaimantID   string     `json:"claimantId"`
	ClaimantName string     `json:"claimantName"`
	Status       string     `json:"status"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Destinations []string   `json:"destinations"`
	Tags         []string   `json:"tags"`
	ExpenseID    string     `json:"expenseId,omitempty"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	Amount       string     `json:"amount,omitempty"`
	Currency     string     `json:"currency,omitempty"`
	OccurredAt   *time.Time `json:"occurredAt,omitempty"`
	Completed    bool       `json:"completed"`
	Receipt      string     `json:"receipt,omitempty"`
}

// GetExport handles GET /export.
// It returns one row per expense across all claims.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	rows := s.export.Export()

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		out := make([]exportRow, 0, len(rows))
		for _, row := range rows {
			out = append(out, toExportRow(row))
		}
		writeJSON(w, http.StatusOK, out)
	case "csv":
		writeCSV(w, rows)
	default:
		badRequest(w, "format must be json or csv")
	}
}

// writeCSV streams rows as CSV. List columns are pipe-separated ("|") to keep
// each expense on a single CSV line.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="claims.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(toCSVRecord(row))
	}
	cw.Flush()
}

func toExportRow(r domain.ExportRow) exportRow {
	return exportRow{
		ClaimID:      r.ClaimID,
		ClaimantID:   r.ClaimantID,
		ClaimantName: r.ClaimantName,
		Status:       string(r.Status),
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Destinations: r.Destinations,
		Tags:         r.Tags,
		ExpenseID:    r.ExpenseID,
		Description:  r.Description,
		Category:     string(r.Category),
		Amount:       r.Amount,
		Currency:     string(r.Currency),
		OccurredAt:   r.OccurredAt,
		Completed:    r.Completed,
		Receipt:      r.Receipt,
	}
}

// toCSVRecord encodes a domain.ExportRow as a flat string slice.
// Nil time pointers are encoded as empty strings.
func toCSVRecord(r domain.ExportRow) []string {
	completed := ""
	if r.ExpenseID != "" {
		completed = strconv.FormatBool(r.Completed)
	}
	return []string{
		r.ClaimID,
		r.ClaimantID,
		r.ClaimantName,
		string(r.Status),
		formatOptionalTime(r.StartTime),
		formatOptionalTime(r.EndTime),
		strings.Join(r.Destinations, "|"),
		strings.Join(r.Tags, "|"),
		r.ExpenseID,
		r.Description,
		string(r.Category),
		r.Amount,
		string(r.Currency),
		formatOptionalTime(r.OccurredAt),
		completed,
		r.Receipt,
	}
}

// formatOptionalTime returns the RFC3339 representation of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
