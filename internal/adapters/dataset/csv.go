package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/jobplan/internal/domain/stats"
)

// Default file layout of a project directory.
const (
	DefaultCountFile       = "Mol_ct_file.csv"
	DefaultLabelsFile      = "validation_labels.txt"
	DefaultLabelsIteration = 1
)

// CSVReader reads a project laid out as
//
//	<root>/Mol_ct_file.csv                       per-file counts, no header
//	<root>/iteration_<k>/validation_labels.txt   header row, score in column 0
type CSVReader struct {
	root            string
	countFile       string
	labelsFile      string
	labelsIteration int
}

var _ Reader = (*CSVReader)(nil)

// NewCSVReader creates a reader rooted at root. Validation labels are read
// from iteration 1 unless WithLabelsIteration says otherwise.
func NewCSVReader(root string, opts ...Option) *CSVReader {
	r := &CSVReader{
		root:            root,
		countFile:       DefaultCountFile,
		labelsFile:      DefaultLabelsFile,
		labelsIteration: DefaultLabelsIteration,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LabelsPath returns the labels file used when planning iteration.
func (r *CSVReader) LabelsPath(iteration int) string {
	k := r.labelsIteration
	if k == 0 {
		k = iteration
	}
	return filepath.Join(r.root, "iteration_"+strconv.Itoa(k), r.labelsFile)
}

// RowCount sums the first column of the count file.
func (r *CSVReader) RowCount(ctx context.Context) (int, error) {
	path := filepath.Join(r.root, r.countFile)
	total := 0
	err := readFirstColumn(ctx, path, false, func(line int, field string) error {
		n, err := strconv.Atoi(field)
		if err != nil {
			f, ferr := strconv.ParseFloat(field, 64)
			if ferr != nil || f != float64(int(f)) {
				return fmt.Errorf("%w: %s line %d: count %q is not an integer", ErrMalformedInput, path, line, field)
			}
			n = int(f)
		}
		if n < 0 {
			return fmt.Errorf("%w: %s line %d: negative count %d", ErrMalformedInput, path, line, n)
		}
		total += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// LoadScores reads the first column of the labels file, skipping the header.
func (r *CSVReader) LoadScores(ctx context.Context, iteration int) (*stats.Sample, error) {
	path := r.LabelsPath(iteration)
	var scores []float64
	err := readFirstColumn(ctx, path, true, func(line int, field string) error {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Errorf("%w: %s line %d: score %q is not a number", ErrMalformedInput, path, line, field)
		}
		scores = append(scores, v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sample, err := stats.NewSample(scores)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedInput, path, err)
	}
	return sample, nil
}

// readFirstColumn streams path and calls fn with the trimmed first field of
// every non-blank record.
func readFirstColumn(ctx context.Context, path string, skipHeader bool, fn func(line int, field string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedInput, path, err)
		}
		if line == 1 && skipHeader {
			continue
		}
		field := strings.TrimSpace(rec[0])
		if field == "" {
			continue
		}
		if err := fn(line, field); err != nil {
			return err
		}
	}
}
