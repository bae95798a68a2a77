package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sales = [][]any{
	{"Region", "Q1", "Q2"},
	{"North", 10.0, 12.0},
	{"South", "7", 9.0},
	{"East", "n/a", 4.0},
}

func TestBuild_PieCountsOccurrences(t *testing.T) {
	rows := [][]any{{"X"}, {"a"}, {"a"}, {"b"}}

	spec, err := Build(rows, Pie, []string{"X"})

	require.NoError(t, err)
	assert.Equal(t, "pie", spec.Type)
	assert.Equal(t, []string{"a", "b"}, spec.Labels)
	require.Len(t, spec.Datasets, 1)
	assert.Equal(t, []any{2, 1}, spec.Datasets[0].Data)
	assert.Equal(t, []string{palette[0], palette[1]}, spec.Datasets[0].BackgroundColor)
}

func TestBuild_PieLabelAndValue(t *testing.T) {
	spec, err := Build(sales, Pie, []string{"Region", "Q1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"North", "South", "East"}, spec.Labels)
	assert.Equal(t, "Q1", spec.Datasets[0].Label)
	assert.Equal(t, []any{10.0, 7.0, 0.0}, spec.Datasets[0].Data)
}

func TestBuild_DoughnutAndPolarArea(t *testing.T) {
	spec, err := Build(sales, Doughnut, []string{"Region", "Q2"})
	require.NoError(t, err)
	assert.Equal(t, "doughnut", spec.Type)

	spec, err = Build(sales, PolarArea, []string{"Region", "Q2"})
	require.NoError(t, err)
	assert.Equal(t, "polarArea", spec.Type)
	assert.Equal(t, PolarArea, spec.Kind)
}

func TestBuild_BarFrequency(t *testing.T) {
	rows := [][]any{{"Grade"}, {"A"}, {"B"}, {"A"}, {nil}}

	spec, err := Build(rows, Bar, []string{"Grade"})

	require.NoError(t, err)
	assert.Equal(t, "bar", spec.Type)
	assert.Equal(t, []string{"A", "B"}, spec.Labels)
	assert.Equal(t, []any{2, 1}, spec.Datasets[0].Data)
}

func TestBuild_BarParallelSeries(t *testing.T) {
	spec, err := Build(sales, Bar, []string{"Region", "Q1", "Q2"})

	require.NoError(t, err)
	assert.Equal(t, []string{"North", "South", "East"}, spec.Labels)
	require.Len(t, spec.Datasets, 2)
	assert.Equal(t, "Q1", spec.Datasets[0].Label)
	assert.Equal(t, "Q2", spec.Datasets[1].Label)
	assert.Equal(t, []any{12.0, 9.0, 4.0}, spec.Datasets[1].Data)
	assert.NotContains(t, spec.Options, "indexAxis")
}

func TestBuild_ColumnIsHorizontal(t *testing.T) {
	spec, err := Build(sales, Column, []string{"Region", "Q1"})

	require.NoError(t, err)
	assert.Equal(t, "bar", spec.Type)
	assert.Equal(t, "y", spec.Options["indexAxis"])
}

func TestBuild_Histogram(t *testing.T) {
	spec, err := Build(sales, Histogram, []string{"Region", "Q1"})

	require.NoError(t, err)
	assert.Equal(t, 1.0, spec.Datasets[0].BarPercentage)
	assert.Equal(t, 1.0, spec.Datasets[0].CategoryPercentage)
}

func TestBuild_LineAreaRadar(t *testing.T) {
	line, err := Build(sales, Line, []string{"Region", "Q1", "Q2"})
	require.NoError(t, err)
	assert.Equal(t, "line", line.Type)
	assert.Len(t, line.Datasets, 2)
	assert.False(t, line.Datasets[0].Fill)

	area, err := Build(sales, Area, []string{"Region", "Q1"})
	require.NoError(t, err)
	assert.Equal(t, "line", area.Type)
	assert.True(t, area.Datasets[0].Fill)

	radar, err := Build(sales, Radar, []string{"Region", "Q2"})
	require.NoError(t, err)
	assert.Equal(t, "radar", radar.Type)
	assert.Equal(t, []string{"North", "South", "East"}, radar.Labels)
}

func TestBuild_ScatterFiltersNonNumeric(t *testing.T) {
	spec, err := Build(sales, Scatter, []string{"Q1", "Q2"})

	require.NoError(t, err)
	assert.Equal(t, "scatter", spec.Type)
	assert.Equal(t, []any{Point{X: 10, Y: 12}, Point{X: 7, Y: 9}}, spec.Datasets[0].Data)
	assert.Equal(t, []string{}, spec.Labels)
}

func TestBuild_ScatterNeedsTwoColumns(t *testing.T) {
	_, err := Build(sales, Scatter, []string{"Q1"})
	assert.ErrorIs(t, err, ErrNotEnoughColumns)
}

func TestBuild_NoData(t *testing.T) {
	_, err := Build(nil, Bar, []string{"X"})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Build([][]any{{"X"}}, Bar, []string{"X"})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestBuild_TooMuchData(t *testing.T) {
	rows := [][]any{{"X"}}
	for i := 0; i < MaxRows; i++ {
		rows = append(rows, []any{float64(i)})
	}
	_, err := Build(rows, Line, []string{"X"})
	assert.NoError(t, err)

	rows = append(rows, []any{1.0})
	_, err = Build(rows, Line, []string{"X"})
	assert.ErrorIs(t, err, ErrTooMuchData)
}

func TestBuild_InvalidSelection(t *testing.T) {
	_, err := Build(sales, Bar, nil)
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = Build(sales, Bar, []string{"Missing"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Build(sales, Kind("Bubble"), []string{"Q1"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBuild_ShortRowsReadAsEmpty(t *testing.T) {
	rows := [][]any{{"Name", "Score"}, {"Alice"}, {"Bob", 3.0}}

	spec, err := Build(rows, Bar, []string{"Name", "Score"})

	require.NoError(t, err)
	assert.Equal(t, []any{0.0, 3.0}, spec.Datasets[0].Data)
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"Pie":        Pie,
		"bar":        Bar,
		"Polar Area": PolarArea,
		"polarArea":  PolarArea,
		"polar_area": PolarArea,
		" DOUGHNUT ": Doughnut,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("bubble")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
