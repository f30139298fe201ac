package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aquastack-labs/fishdoc/internal/state"
)

// csvHeader is the column layout of history exports.
var csvHeader = []string{
	"id", "created_at", "species", "disease_id", "disease_name",
	"cf", "symptom_count", "reasoning_path",
}

// WriteCSV exports the consultations to a timestamped .csv file in the
// output directory, returning the path.
func (g *Generator) WriteCSV(consultations []*state.Consultation) (string, error) {
	if err := os.MkdirAll(g.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(g.dir,
		fmt.Sprintf("history_%s.csv", g.now().Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create csv export: %w", err)
	}
	defer f.Close()

	if err := CSV(f, consultations); err != nil {
		return "", err
	}
	return path, nil
}

// CSV writes the consultations to w in CSV form, one row per consultation.
func CSV(w io.Writer, consultations []*state.Consultation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range consultations {
		row := []string{
			c.ID,
			c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			c.Species,
			c.DiseaseID,
			c.DiseaseName,
			strconv.FormatFloat(c.CF, 'f', 3, 64),
			strconv.Itoa(len(c.Symptoms)),
			c.ReasoningPath,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
