package chart

import "excel_analytics/internal/model"

var palette = []string{
	"rgba(255, 99, 132, 0.6)",
	"rgba(54, 162, 235, 0.6)",
	"rgba(255, 206, 86, 0.6)",
	"rgba(75, 192, 192, 0.6)",
	"rgba(153, 102, 255, 0.6)",
	"rgba(255, 159, 64, 0.6)",
	"rgba(199, 199, 199, 0.6)",
	"rgba(83, 102, 255, 0.6)",
}

func color(i int) string {
	return palette[i%len(palette)]
}

func colors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = color(i)
	}
	return out
}

// frequency counts distinct values of a column in first-appearance order.
// Empty cells are not counted.
func frequency(t Table, col int) ([]string, []any) {
	var labels []string
	counts := map[string]int{}
	for r := range t.Rows {
		v := t.Cell(r, col)
		if v == nil {
			continue
		}
		key := model.CellString(v)
		if _, seen := counts[key]; !seen {
			labels = append(labels, key)
		}
		counts[key]++
	}
	data := make([]any, len(labels))
	for i, l := range labels {
		data[i] = counts[l]
	}
	return labels, data
}

func labelsOf(t Table, col int) []string {
	labels := make([]string, len(t.Rows))
	for r := range t.Rows {
		labels[r] = model.CellString(t.Cell(r, col))
	}
	return labels
}

// values reads a column as numbers; non-numeric cells count as 0.
func values(t Table, col int) []any {
	data := make([]any, len(t.Rows))
	for r := range t.Rows {
		f, _ := model.CellFloat(t.Cell(r, col))
		data[r] = f
	}
	return data
}

func buildCategorical(chartType string) BuildFunc {
	return func(t Table, cols []int) (*Spec, error) {
		spec := &Spec{Type: chartType}
		if len(cols) == 1 {
			labels, counts := frequency(t, cols[0])
			spec.Labels = labels
			spec.Datasets = []Dataset{{
				Label:           t.Header[cols[0]],
				Data:            counts,
				BackgroundColor: colors(len(labels)),
				BorderWidth:     1,
			}}
			return spec, nil
		}
		spec.Labels = labelsOf(t, cols[0])
		spec.Datasets = []Dataset{{
			Label:           t.Header[cols[1]],
			Data:            values(t, cols[1]),
			BackgroundColor: colors(len(spec.Labels)),
			BorderWidth:     1,
		}}
		return spec, nil
	}
}

func buildBar(adjust func(*Spec)) BuildFunc {
	return func(t Table, cols []int) (*Spec, error) {
		spec := &Spec{Type: "bar", Options: map[string]any{}}
		if len(cols) == 1 {
			labels, counts := frequency(t, cols[0])
			spec.Labels = labels
			spec.Datasets = []Dataset{{
				Label:           t.Header[cols[0]] + " (count)",
				Data:            counts,
				BackgroundColor: color(0),
				BorderWidth:     1,
			}}
		} else {
			spec.Labels = labelsOf(t, cols[0])
			for i, col := range cols[1:] {
				spec.Datasets = append(spec.Datasets, Dataset{
					Label:           t.Header[col],
					Data:            values(t, col),
					BackgroundColor: color(i),
					BorderWidth:     1,
				})
			}
		}
		if adjust != nil {
			adjust(spec)
		}
		return spec, nil
	}
}

func buildSeries(chartType string, fill bool) BuildFunc {
	return func(t Table, cols []int) (*Spec, error) {
		spec := &Spec{Type: chartType}
		if len(cols) == 1 {
			labels, counts := frequency(t, cols[0])
			spec.Labels = labels
			spec.Datasets = []Dataset{{
				Label:           t.Header[cols[0]] + " (count)",
				Data:            counts,
				BorderColor:     color(0),
				BackgroundColor: color(0),
				Fill:            fill,
			}}
			return spec, nil
		}
		spec.Labels = labelsOf(t, cols[0])
		for i, col := range cols[1:] {
			spec.Datasets = append(spec.Datasets, Dataset{
				Label:           t.Header[col],
				Data:            values(t, col),
				BorderColor:     color(i),
				BackgroundColor: color(i),
				Fill:            fill,
			})
		}
		return spec, nil
	}
}

func buildScatter(t Table, cols []int) (*Spec, error) {
	if len(cols) < 2 {
		return nil, ErrNotEnoughColumns
	}
	xCol, yCol := cols[0], cols[1]

	points := []any{}
	for r := range t.Rows {
		x, okX := model.CellFloat(t.Cell(r, xCol))
		y, okY := model.CellFloat(t.Cell(r, yCol))
		if okX && okY {
			points = append(points, Point{X: x, Y: y})
		}
	}

	return &Spec{
		Type: "scatter",
		Datasets: []Dataset{{
			Label:           t.Header[xCol] + " vs " + t.Header[yCol],
			Data:            points,
			BackgroundColor: color(0),
		}},
		Options: map[string]any{
			"scales": map[string]any{
				"x": map[string]any{"title": map[string]any{"display": true, "text": t.Header[xCol]}},
				"y": map[string]any{"title": map[string]any{"display": true, "text": t.Header[yCol]}},
			},
		},
	}, nil
}
