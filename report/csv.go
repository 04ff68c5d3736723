package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/weiihann/lookupbench/harness"
	"github.com/weiihann/lookupbench/stats"
)

// SampleHeader is the required header of a samples CSV file.
var SampleHeader = []string{"value", "range_ns", "map_ns"}

var summaryFields = []string{
	"mean", "median", "std_pop", "std_sample", "q1", "q3", "min", "max",
}

// BlockHeader returns the header of a blocks CSV file.
func BlockHeader() []string {
	header := []string{"block", "n"}
	for _, prefix := range []string{"range", "map"} {
		for _, f := range summaryFields {
			header = append(header, prefix+"_"+f)
		}
	}

	return header
}

// WriteSamplesCSV writes representative samples with SampleHeader.
func WriteSamplesCSV(w io.Writer, samples []harness.Sample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(SampleHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range samples {
		if err := cw.Write([]string{
			strconv.Itoa(s.Value),
			strconv.FormatUint(s.RangeNs, 10),
			strconv.FormatUint(s.MapNs, 10),
		}); err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// ReadSamplesCSV parses a samples file. The header must equal
// SampleHeader exactly (ignoring surrounding whitespace and case).
func ReadSamplesCSV(r io.Reader) ([]harness.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(SampleHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	if !slices.Equal(header, SampleHeader) {
		return nil, fmt.Errorf("unexpected header %v, want %v",
			header, SampleHeader)
	}

	var samples []harness.Sample

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		value, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: value: %w", line, err)
		}
		rangeNs, err := strconv.ParseUint(strings.TrimSpace(rec[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: range_ns: %w", line, err)
		}
		mapNs, err := strconv.ParseUint(strings.TrimSpace(rec[2]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: map_ns: %w", line, err)
		}

		samples = append(samples, harness.Sample{
			Value:   value,
			RangeNs: rangeNs,
			MapNs:   mapNs,
		})
	}

	return samples, nil
}

// WriteBlocksCSV writes one row per block record, in block order.
func WriteBlocksCSV(w io.Writer, blocks []harness.BlockStats) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(BlockHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, b := range blocks {
		row := []string{strconv.Itoa(b.Block), strconv.Itoa(b.N)}
		row = append(row, summaryColumns(b.Range)...)
		row = append(row, summaryColumns(b.Map)...)

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write block %d: %w", b.Block, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func summaryColumns(s stats.Summary) []string {
	values := []float64{
		s.Mean, s.Median, s.StdPop, s.StdSample, s.Q1, s.Q3, s.Min, s.Max,
	}

	cols := make([]string, len(values))
	for i, v := range values {
		cols[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	return cols
}
