package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Column names of the YOLOv5 results.csv used for charts.
const (
	ColEpoch     = "epoch"
	ColTrainLoss = "train/loss"
	ColPrecision = "val/precision"
	ColRecall    = "val/recall"
	ColMAP50     = "val/mAP_0.5"
	ColMAP5095   = "val/mAP_0.5:0.95"
)

// RequiredColumns must all be present for charts to be drawn.
var RequiredColumns = []string{ColEpoch, ColTrainLoss, ColPrecision, ColRecall, ColMAP50, ColMAP5095}

var (
	// ErrMissingColumn is returned when results.csv lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrNoResults is returned when results.csv has a header but no rows.
	ErrNoResults = errors.New("no result rows")
)

// Results holds the numeric columns of a results.csv, keyed by trimmed header name.
type Results struct {
	columns map[string][]float64
	order   []string
}

// Column returns the values of the named column, or nil if it is absent.
func (r *Results) Column(name string) []float64 {
	return r.columns[name]
}

// Columns returns the header names in file order.
func (r *Results) Columns() []string {
	return r.order
}

// Len returns the number of rows.
func (r *Results) Len() int {
	if len(r.order) == 0 {
		return 0
	}

	return len(r.columns[r.order[0]])
}

// ParseResults reads a training results CSV. Header names are trimmed, since
// YOLOv5 pads them with spaces. Every required column must be present.
// Cells that are empty or not numbers become NaN.
func ParseResults(r io.Reader) (*Results, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoResults
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// fields maps a CSV position to its column. Unnamed columns are dropped and
	// repeated names keep the first occurrence.
	res := &Results{columns: make(map[string][]float64, len(header))}
	fields := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, dup := res.columns[name]; dup || name == "" {
			continue
		}
		fields[i] = name
		res.order = append(res.order, name)
		res.columns[name] = nil
	}

	for _, col := range RequiredColumns {
		if _, ok := res.columns[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		for i, name := range fields {
			if name == "" {
				continue
			}
			v := math.NaN()
			if i < len(record) {
				if f, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64); err == nil {
					v = f
				}
			}
			res.columns[name] = append(res.columns[name], v)
		}
	}

	if res.Len() == 0 {
		return nil, ErrNoResults
	}

	return res, nil
}
