// Package wordlist loads candidate words from CSV or line-oriented files.
package wordlist

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Valid reports whether word is a lookup candidate: non-empty and
// composed of letters only. Tokens that start with a digit or carry
// punctuation, spaces, or digits anywhere are rejected.
func Valid(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Load reads words from path, filtering invalid tokens and dropping
// duplicates while preserving first-seen order. Files ending in .csv are
// parsed as tabular data with a "word" column; anything else is treated
// as one word per line.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	var raw []string
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		raw, err = readCSV(f)
	} else {
		raw, err = readLines(f)
	}
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, w := range raw {
		w = strings.TrimSpace(w)
		if !Valid(w) {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words, nil
}

func readCSV(f *os.File) ([]string, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "word") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("csv file %s has no \"word\" column", f.Name())
	}

	var words []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		if col < len(record) {
			words = append(words, record[col])
		}
	}
	return words, nil
}

func readLines(f *os.File) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan word list: %w", err)
	}
	return words, nil
}
