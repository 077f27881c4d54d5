// Package metrics records training progress (loss, reward, step counters) to
// CSV so a run can be plotted after the fact.
//
// The teacher has no metrics sink of its own; this package repurposes the
// encoding/csv machinery the teacher's dataset.LoadCSV (milosgajdos-go-neural/dataset/dataset.go)
// used for reading training data, turned around into a writer. RunID gives
// a run a short random ID from pkg/helpers (the teacher's own
// PseudoRandString) for tagging its log lines; the CSV path itself is
// whatever the caller passes to NewRecorder.
package metrics

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/milosgajdos/deepnet/pkg/helpers"
)

// Recorder appends rows of numeric fields to a CSV file, whose header row
// is the one given to NewRecorder and is written once when the file is
// created.
type Recorder struct {
	f      *os.File
	w      *csv.Writer
	header []string
}

// NewRecorder creates (or truncates) a CSV file at path with the given
// column header, in order.
func NewRecorder(path string, header []string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("metrics: could not create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("metrics: could not write header: %w", err)
	}
	return &Recorder{f: f, w: w, header: header}, nil
}

// Record writes one row of values, in the same order as the header passed
// to NewRecorder. It flushes after every row so a killed process still
// leaves a readable partial CSV.
func (r *Recorder) Record(values ...float64) error {
	if len(values) != len(r.header) {
		return fmt.Errorf("metrics: expected %d values, got %d", len(r.header), len(values))
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprintf("%g", v)
	}
	if err := r.w.Write(row); err != nil {
		return err
	}
	r.w.Flush()
	return r.w.Error()
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

// RunID returns a short random identifier suitable for tagging a run's log
// lines and output filenames.
func RunID() string {
	return helpers.PseudoRandString(8)
}
