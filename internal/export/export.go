package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/query"
)

// Format selects the export encoding.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

var csvHeader = []string{
	"Year",
	"Annual Extractable (BCM)",
	"Total Extraction (BCM)",
	"Groundwater Stage (%)",
	"Category",
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FileName derives the download name for a location.
func FileName(location string, f Format) string {
	return "groundwater_data_" + unsafeChars.ReplaceAllString(location, "_") + "." + string(f)
}

// Write encodes rs in format f.
func Write(w io.Writer, f Format, rs query.ResultSet) error {
	switch f {
	case CSV:
		return writeCSV(w, rs)
	case JSON:
		return writeJSON(w, rs)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

func writeCSV(w io.Writer, rs query.ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, y := range rs.Years {
		row := []string{
			strconv.Itoa(y.Year),
			cell(y.AnnualExtractable),
			cell(y.TotalExtraction),
			cell(y.StagePercent),
			y.Categorization,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(q dataservice.Quantity) string {
	if !q.Valid {
		return ""
	}
	return strconv.FormatFloat(q.Value, 'f', -1, 64)
}

type document struct {
	Location       string                   `json:"location"`
	QueryTimestamp string                   `json:"query_timestamp"`
	Data           []dataservice.YearRecord `json:"data"`
}

func writeJSON(w io.Writer, rs query.ResultSet) error {
	ts := rs.RetrievedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{
		Location:       rs.Location,
		QueryTimestamp: ts.Format(time.RFC3339),
		Data:           rs.Years,
	}); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// Dir writes exports as files in a directory.
type Dir struct {
	Path string
}

// Export writes rs to Path and returns the file path.
func (d Dir) Export(rs query.ResultSet, f Format) (string, error) {
	dir := d.Path
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(rs.Location, f))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := Write(file, f, rs); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}
