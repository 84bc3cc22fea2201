package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/spektr-org/vitasicura/engine"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func barConfig() *engine.ChartConfig {
	return &engine.ChartConfig{
		ChartType: "bar",
		Title:     "Clienti per profilo",
		YAxis:     "Clienti",
		Series: []engine.ChartSeries{{
			Name: "Clienti",
			Data: []engine.ChartPoint{
				{Label: "Famiglia", Value: 12, Weight: 0.4},
				{Label: "Senior", Value: 7, Weight: 1},
				{Label: "Giovani professionisti in carriera", Value: 3},
			},
		}},
		Colors: []string{"#4C78A8"},
	}
}

func TestChartPNGEveryType(t *testing.T) {
	stacked := &engine.ChartConfig{
		ChartType: "stacked_bar",
		Title:     "Potenziale complessivo",
		Series: []engine.ChartSeries{
			{Name: "Casa", Color: "#4C78A8", Data: []engine.ChartPoint{{Label: "Milano", Value: 0.8}, {Label: "Roma", Value: 0.6}}},
			{Name: "Salute", Color: "#72B7B2", Data: []engine.ChartPoint{{Label: "Milano", Value: 0.5}, {Label: "Roma", Value: 0.7}}},
		},
	}

	edges := engine.HistogramEdges(10, []float64{0.2, 0.4, 0.9}, []float64{0.3, 0.5})
	hist := &engine.ChartConfig{
		ChartType:  "histogram",
		Title:      "Loss Ratio",
		ShowLegend: true,
		Series: []engine.ChartSeries{
			engine.HistogramSeries("Prima", "#4C78A8", engine.Histogram([]float64{0.2, 0.4, 0.9}, edges)),
			engine.HistogramSeries("Dopo", "#F58518", engine.Histogram([]float64{0.3, 0.5}, edges)),
		},
	}

	scatter := &engine.ChartConfig{
		ChartType: "scatter",
		Title:     "Bisogno vs capacità",
		Series: []engine.ChartSeries{{
			Name: "Potenziale Casa",
			Data: []engine.ChartPoint{
				{Label: "Milano", X: 450000, Value: 0.8, Size: 120},
				{Label: "Roma", X: 250000, Value: 0.6, Size: 80},
				{Label: "Napoli", X: 150000, Value: 0.3, Size: 10},
			},
		}},
		Guides:      []engine.Guide{{Axis: "x", Value: 300000}, {Axis: "y", Value: 0.6}},
		Annotations: []engine.Annotation{{X: 560000, Y: 0.82, Text: "Priorità commerciale"}},
	}

	for _, cfg := range []*engine.ChartConfig{barConfig(), stacked, hist, scatter} {
		var buf bytes.Buffer
		err := ChartPNG(&buf, cfg, Size{Width: 640, Height: 360})
		assert.NilError(t, err, cfg.ChartType)
		assert.Assert(t, bytes.HasPrefix(buf.Bytes(), pngMagic), cfg.ChartType)
	}
}

func TestChartPNGSinglePoint(t *testing.T) {
	cfg := &engine.ChartConfig{
		ChartType: "scatter",
		Series:    []engine.ChartSeries{{Data: []engine.ChartPoint{{Label: "Roma", X: 250000, Value: 0.6}}}},
	}
	var buf bytes.Buffer
	assert.NilError(t, ChartPNG(&buf, cfg, Size{}))
	assert.Assert(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestChartPNGEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := ChartPNG(&buf, &engine.ChartConfig{ChartType: "bar"}, Size{})
	assert.Assert(t, errors.Is(err, ErrEmptyChart))
	assert.Equal(t, buf.Len(), 0)

	assert.Assert(t, errors.Is(ChartPNG(&buf, nil, Size{}), ErrEmptyChart))
}

func TestPaddedRange(t *testing.T) {
	r := paddedRange([]float64{2, 2}, 0.05)
	assert.Assert(t, r.Min < 2 && r.Max > 2)

	r = paddedRange([]float64{0, 10}, 0.1)
	assert.Equal(t, r.Min, -1.0)
	assert.Equal(t, r.Max, 11.0)

	r = paddedRange(nil, 0.1)
	assert.Equal(t, r.Max, 1.0)
}

func sampleTable(title string) *engine.TableData {
	return &engine.TableData{
		Title: title,
		Columns: []engine.Column{
			{Key: "luogo_di_residenza", Label: "Comune"},
			{Key: "n_clienti", Label: "Clienti attuali"},
		},
		Rows: [][]string{{"Milano", "120"}, {"Roma", "80"}},
	}
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf,
		sampleTable("Comuni prioritari ordinati per Potenziale Casa"),
		sampleTable("Comuni prioritari ordinati per Potenziale Casa"),
		sampleTable("Azioni: prima/dopo"),
	)
	assert.NilError(t, err)

	f, err := excelize.OpenReader(&buf)
	assert.NilError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Equal(t, len(sheets), 3)
	assert.Assert(t, len([]rune(sheets[0])) <= maxSheetName)
	assert.Assert(t, sheets[0] != sheets[1])
	assert.Equal(t, sheets[2], "Azioni- prima-dopo")

	rows, err := f.GetRows(sheets[0])
	assert.NilError(t, err)
	assert.DeepEqual(t, rows, [][]string{
		{"Comune", "Clienti attuali"},
		{"Milano", "120"},
		{"Roma", "80"},
	})
}

func TestWriteXLSXNothing(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf, &engine.TableData{Title: "vuota"})
	assert.Assert(t, errors.Is(err, ErrNothingToExport))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	tbl := sampleTable("Comuni")
	tbl.Rows = append(tbl.Rows, []string{"Reggio, Calabria", "5"})
	assert.NilError(t, WriteCSV(&buf, tbl))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, len(lines), 4)
	assert.Equal(t, lines[0], "Comune,Clienti attuali")
	assert.Assert(t, is.Equal(lines[3], `"Reggio, Calabria",5`))
}
