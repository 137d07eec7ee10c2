// Package importer bulk-loads questions from CSV exports.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"cuckoo-backend/internal/models"
	"cuckoo-backend/internal/services"
)

// Creator is implemented by services.QuestionService.
type Creator interface {
	Create(ctx context.Context, req models.CreateQuestionRequest) (*models.Question, error)
}

// Report counts what Load did with each row.
type Report struct {
	Loaded  int
	Skipped int
}

// ReadCSV parses a file whose header names a title and a text column and,
// optionally, a comma separated tags column. Column order is free; other
// columns are ignored.
func ReadCSV(r io.Reader) ([]models.CreateQuestionRequest, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("csv: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	cols := map[string]int{"title": -1, "text": -1, "tags": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := cols[name]; ok {
			cols[name] = i
		}
	}
	if cols["title"] < 0 || cols["text"] < 0 {
		return nil, fmt.Errorf("csv header must contain title and text, got %v", header)
	}

	field := func(rec []string, name string) string {
		i := cols[name]
		if i < 0 || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var out []models.CreateQuestionRequest
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, models.CreateQuestionRequest{
			Title: field(rec, "title"),
			Text:  field(rec, "text"),
			Tags:  models.ParseTags(field(rec, "tags")),
		})
	}
	return out, nil
}

// Load creates each question. Rows rejected by validation (duplicates,
// missing fields) are skipped and reported through skip; any other error
// stops the load.
func Load(ctx context.Context, c Creator, rows []models.CreateQuestionRequest, skip func(row int, err error)) (Report, error) {
	var rep Report
	for i, req := range rows {
		_, err := c.Create(ctx, req)
		var vErr *services.ValidationError
		switch {
		case err == nil:
			rep.Loaded++
		case errors.As(err, &vErr):
			rep.Skipped++
			if skip != nil {
				skip(i, err)
			}
		default:
			return rep, fmt.Errorf("row %d (%q): %w", i+1, req.Title, err)
		}
	}
	return rep, nil
}
