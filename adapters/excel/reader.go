package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sweffect/domain/study"
	"sweffect/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Required column headers, matched case-insensitively
var requiredColumns = []string{"unit_id", "period", "treated", "exposure_time", "outcome"}

// DataReader loads longitudinal datasets from Excel or CSV files
type DataReader struct{}

// NewDataReader creates a new data reader
func NewDataReader() *DataReader {
	return &DataReader{}
}

// Read loads the file at path into a validated dataset. The nominal period
// count is inferred as the largest observed period minus the declared
// trailing padding.
func (r *DataReader) Read(ctx context.Context, path string, extraTimePoints int) (*study.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("data file %s", path))
	}

	var rows [][]string
	var err error
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		rows, err = readCSVRows(path)
	} else {
		rows, err = readExcelRows(path)
	}
	if err != nil {
		return nil, err
	}
	return buildDataset(rows, extraTimePoints)
}

func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidDataset("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sheet rows")
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CSV")
	}
	return rows, nil
}

func buildDataset(rows [][]string, extraTimePoints int) (*study.Dataset, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidDataset("file has no data rows")
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, errors.InvalidDataset(fmt.Sprintf("missing required column: %s", name))
		}
	}

	records := make([]study.Record, 0, len(rows)-1)
	maxPeriod := 0
	for i, row := range rows[1:] {
		rec, err := parseRecord(row, col)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+2)
		}
		if rec.Period > maxPeriod {
			maxPeriod = rec.Period
		}
		records = append(records, rec)
	}

	ds := &study.Dataset{
		Records: records,
		Params: study.DesignParams{
			TimePoints:      maxPeriod - extraTimePoints,
			ExtraTimePoints: extraTimePoints,
		},
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func parseRecord(row []string, col map[string]int) (study.Record, error) {
	cell := func(name string) string {
		idx := col[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	unitID, err := strconv.Atoi(cell("unit_id"))
	if err != nil {
		return study.Record{}, errors.InvalidDataset("unit_id is not an integer")
	}
	period, err := strconv.Atoi(cell("period"))
	if err != nil {
		return study.Record{}, errors.InvalidDataset("period is not an integer")
	}
	treated, err := strconv.Atoi(cell("treated"))
	if err != nil {
		return study.Record{}, errors.InvalidDataset("treated is not an integer")
	}
	exposure := 0
	if v := cell("exposure_time"); v != "" {
		exposure, err = strconv.Atoi(v)
		if err != nil {
			return study.Record{}, errors.InvalidDataset("exposure_time is not an integer")
		}
	}
	outcome, err := strconv.ParseFloat(cell("outcome"), 64)
	if err != nil {
		return study.Record{}, errors.InvalidDataset("outcome is not numeric")
	}

	return study.Record{
		UnitID:   unitID,
		Period:   period,
		Treated:  treated,
		Exposure: exposure,
		Outcome:  outcome,
	}, nil
}
