// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// reader reads header-addressed records from a CSV table.  Columns that are
// not requested are ignored, and the first unnamed column written by pandas
// (the index) is skipped naturally because nothing asks for it.
type reader struct {
	csv     *csv.Reader
	columns map[string]int
	line    int
}

func newReader(r io.Reader, required ...string) (*reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %v", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return &reader{csv: cr, columns: columns, line: 1}, nil
}

// next returns the next record or io.EOF.
func (r *reader) next() (record, error) {
	fields, err := r.csv.Read()
	if err != nil {
		return record{}, err
	}
	r.line++
	return record{r, fields}, nil
}

type record struct {
	r      *reader
	fields []string
}

func (rec record) str(column string) (string, error) {
	i := rec.r.columns[column]
	if i >= len(rec.fields) {
		return "", fmt.Errorf("line %d: no value for column %q", rec.r.line, column)
	}
	return strings.TrimSpace(rec.fields[i]), nil
}

// float parses a numeric column.  Empty cells are read as NaN, which is how
// missing values are written out by the pipeline.
func (rec record) float(column string) (float64, error) {
	s, err := rec.str(column)
	if err != nil {
		return 0, err
	}
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: parsing %s: %v", rec.r.line, column, err)
	}
	return v, nil
}

func (rec record) int(column string) (int, error) {
	s, err := rec.str(column)
	if err != nil {
		return 0, err
	}
	// Integer columns sometimes round-trip through floats ("3.0").
	s = strings.TrimSuffix(s, ".0")
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("line %d: parsing %s: %v", rec.r.line, column, err)
	}
	return v, nil
}
