// Package corpus builds the evidence index from reference statements.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Statement is one trusted reference statement
type Statement struct {
	Text   string
	Source string
}

// LoadCSV reads statements from a CSV file with "title" and "source"
// columns. Without a recognised header the first two columns are used.
func LoadCSV(path string) ([]Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	textCol, sourceCol := 0, 1
	var statements []Statement
	if t, s, ok := headerColumns(first); ok {
		textCol, sourceCol = t, s
	} else if st, ok := toStatement(first, textCol, sourceCol); ok {
		statements = append(statements, st)
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if st, ok := toStatement(record, textCol, sourceCol); ok {
			statements = append(statements, st)
		}
	}

	return Dedupe(statements), nil
}

func headerColumns(record []string) (int, int, bool) {
	textCol, sourceCol := -1, -1
	for i, name := range record {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "title", "text", "statement":
			textCol = i
		case "source", "link", "url":
			sourceCol = i
		}
	}
	return textCol, sourceCol, textCol >= 0
}

func toStatement(record []string, textCol, sourceCol int) (Statement, bool) {
	if textCol >= len(record) {
		return Statement{}, false
	}
	st := Statement{Text: strings.TrimSpace(record[textCol])}
	if sourceCol >= 0 && sourceCol < len(record) {
		st.Source = strings.TrimSpace(record[sourceCol])
	}
	return st, st.Text != ""
}

// SaveCSV writes statements with a title,source header
func SaveCSV(path string, statements []Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"title", "source"}); err != nil {
		return err
	}
	for _, st := range statements {
		if err := w.Write([]string{st.Text, st.Source}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Dedupe drops repeated (text, source) pairs, keeping first occurrences
func Dedupe(statements []Statement) []Statement {
	seen := make(map[Statement]bool, len(statements))
	unique := make([]Statement, 0, len(statements))
	for _, st := range statements {
		if !seen[st] {
			seen[st] = true
			unique = append(unique, st)
		}
	}
	return unique
}
