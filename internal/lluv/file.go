package lluv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	keyTableColumnTypes = "TableColumnTypes"
	tableEndPrefix      = "%TableEnd:"
	maxLineLength       = 1 << 20
)

// ErrMalformed is returned when an LLUV file cannot be parsed.
var ErrMalformed = errors.New("malformed LLUV file")

// File is an LLUV file split into its three sections. Header and Footer keep
// the original lines, without a trailing newline.
type File struct {
	Header string
	Table  *Table
	Footer string
}

// ReadFile reads and parses the LLUV file at path.
func ReadFile(path string) (f *File, err error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := in.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return Read(in)
}

// Read parses an LLUV file. Every line before the first data row is header,
// the footer starts at the '%TableEnd:' line. The schema is taken from the
// '%TableColumnTypes:' header line.
func Read(r io.Reader) (*File, error) {
	const (
		inHeader = iota
		inData
		inFooter
	)

	var header, footer []string
	var (
		values []float64
		rows   int
	)
	var schema *Schema

	state := inHeader
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var lineNo int
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if state != inFooter && strings.HasPrefix(line, tableEndPrefix) {
			state = inFooter
		}

		switch state {
		case inHeader:
			if strings.HasPrefix(line, "%") || strings.TrimSpace(line) == "" {
				header = append(header, line)
				continue
			}

			types, ok := HeaderValue(strings.Join(header, "\n"), keyTableColumnTypes)
			if !ok {
				return nil, fmt.Errorf("%w: line %d: data before %%%s declaration", ErrMalformed, lineNo, keyTableColumnTypes)
			}

			var err error
			if schema, err = ParseSchema(types); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
			}

			state = inData
			fallthrough

		case inData:
			if strings.TrimSpace(line) == "" {
				continue
			}
			if strings.HasPrefix(line, "%") {
				return nil, fmt.Errorf("%w: line %d: unexpected metadata inside data block", ErrMalformed, lineNo)
			}

			row, err := parseRow(line, schema.Len())
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, lineNo, err)
			}
			values = append(values, row...)
			rows++

		case inFooter:
			footer = append(footer, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading LLUV file: %w", err)
	}

	headerText := strings.Join(header, "\n")
	if schema == nil {
		types, ok := HeaderValue(headerText, keyTableColumnTypes)
		if !ok {
			return nil, fmt.Errorf("%w: missing %%%s declaration", ErrMalformed, keyTableColumnTypes)
		}

		var err error
		if schema, err = ParseSchema(types); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	table := &Table{schema: schema}
	if rows > 0 {
		table.data = mat.NewDense(rows, schema.Len(), values)
	}

	return &File{
		Header: headerText,
		Table:  table,
		Footer: strings.Join(footer, "\n"),
	}, nil
}

func parseRow(line string, width int) ([]float64, error) {
	fields := strings.Fields(line)
	if len(fields) != width {
		return nil, fmt.Errorf("row has %d values, expected %d", len(fields), width)
	}

	row := make([]float64, width)
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		row[i] = v
	}
	return row, nil
}

// WriteFile writes f to path, replacing any existing file.
func WriteFile(path string, f *File) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return Write(out, f)
}

// Write writes the header, the data rows and the footer of f.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)

	if f.Header != "" {
		if _, err := bw.WriteString(f.Header + "\n"); err != nil {
			return err
		}
	}

	for i := range f.Table.Rows() {
		for _, v := range f.Table.data.RawRowView(i) {
			if _, err := fmt.Fprintf(bw, " %12s", formatValue(v)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	if f.Footer != "" {
		if _, err := bw.WriteString(f.Footer + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// HeaderValue returns the value of the '%Key: value' line in header.
func HeaderValue(header, key string) (string, bool) {
	prefix := "%" + key + ":"
	for _, line := range strings.Split(header, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}
