// Package chart reshapes stored spreadsheet rows into chart.js configurations.
package chart

import (
	"errors"
	"fmt"
	"strings"

	"excel_analytics/internal/model"
)

// MaxRows is the largest number of data rows a chart is built from.
const MaxRows = 1000

var (
	ErrNoData           = errors.New("no data available to build a chart")
	ErrTooMuchData      = fmt.Errorf("too much data to render, the limit is %d rows", MaxRows)
	ErrUnknownKind      = errors.New("unknown chart type")
	ErrNoColumns        = errors.New("select at least one column")
	ErrUnknownColumn    = errors.New("column not found in header row")
	ErrNotEnoughColumns = errors.New("scatter charts need two columns")
)

// Kind is a supported chart type as offered to users.
type Kind string

const (
	Pie       Kind = "Pie"
	Bar       Kind = "Bar"
	Line      Kind = "Line"
	Column    Kind = "Column"
	Area      Kind = "Area"
	Scatter   Kind = "Scatter"
	Histogram Kind = "Histogram"
	Doughnut  Kind = "Doughnut"
	Radar     Kind = "Radar"
	PolarArea Kind = "Polar Area"
)

// Kinds lists every supported kind in menu order.
var Kinds = []Kind{Pie, Bar, Line, Column, Area, Scatter, Histogram, Doughnut, Radar, PolarArea}

// ParseKind accepts a kind name ignoring case, spaces, dashes and underscores.
func ParseKind(s string) (Kind, error) {
	norm := normalize(s)
	for _, k := range Kinds {
		if normalize(string(k)) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func normalize(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Point is one scatter sample.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dataset is one chart.js series.
type Dataset struct {
	Label              string  `json:"label"`
	Data               []any   `json:"data"`
	BackgroundColor    any     `json:"backgroundColor,omitempty"`
	BorderColor        string  `json:"borderColor,omitempty"`
	BorderWidth        int     `json:"borderWidth,omitempty"`
	Fill               bool    `json:"fill,omitempty"`
	BarPercentage      float64 `json:"barPercentage,omitempty"`
	CategoryPercentage float64 `json:"categoryPercentage,omitempty"`
}

// Spec is the configuration handed to the charting library.
type Spec struct {
	Kind     Kind           `json:"kind"`
	Type     string         `json:"type"`
	Labels   []string       `json:"labels"`
	Datasets []Dataset      `json:"datasets"`
	Options  map[string]any `json:"options,omitempty"`
}

// Table is the data rows of a sheet with its header row split off.
type Table struct {
	Header []string
	Rows   [][]any
}

// Cell returns the value at row r, column c, or nil past the row's end.
func (t Table) Cell(r, c int) any {
	if c < len(t.Rows[r]) {
		return t.Rows[r][c]
	}
	return nil
}

// BuildFunc turns the selected column indexes of a table into a spec.
type BuildFunc func(t Table, cols []int) (*Spec, error)

var builders = map[Kind]BuildFunc{
	Pie:       buildCategorical("pie"),
	Doughnut:  buildCategorical("doughnut"),
	PolarArea: buildCategorical("polarArea"),
	Bar:       buildBar(nil),
	Column:    buildBar(func(s *Spec) { s.Options["indexAxis"] = "y" }),
	Histogram: buildBar(func(s *Spec) {
		for i := range s.Datasets {
			s.Datasets[i].BarPercentage = 1.0
			s.Datasets[i].CategoryPercentage = 1.0
		}
	}),
	Line:    buildSeries("line", false),
	Area:    buildSeries("line", true),
	Radar:   buildSeries("radar", false),
	Scatter: buildScatter,
}

// Build validates rows (header row first) and the selected headers, then
// dispatches to the builder registered for kind.
func Build(rows [][]any, kind Kind, headers []string) (*Spec, error) {
	fn, ok := builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}
	if len(rows)-1 > MaxRows {
		return nil, ErrTooMuchData
	}
	if len(headers) == 0 {
		return nil, ErrNoColumns
	}

	t := Table{Header: make([]string, len(rows[0])), Rows: rows[1:]}
	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		name := model.CellString(h)
		t.Header[i] = name
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	cols := make([]int, 0, len(headers))
	for _, h := range headers {
		i, ok := index[h]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, h)
		}
		cols = append(cols, i)
	}

	spec, err := fn(t, cols)
	if err != nil {
		return nil, err
	}
	spec.Kind = kind
	if spec.Labels == nil {
		spec.Labels = []string{}
	}
	if spec.Options == nil {
		spec.Options = map[string]any{}
	}
	spec.Options["responsive"] = true
	spec.Options["plugins"] = map[string]any{
		"title": map[string]any{"display": true, "text": string(kind) + ": " + strings.Join(headers, ", ")},
	}
	return spec, nil
}
