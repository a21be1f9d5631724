// Package dict defines core types shared across subsystems.
package dict

import (
	"time"
)

// Example is one bilingual example sentence pair attached to a sense or idiom.
type Example struct {
	English string `json:"English"`
	Chinese string `json:"Chinese"`
}

// Sense is one numbered meaning inside a part-of-speech group.
type Sense struct {
	Number   string    `json:"sense_number"`
	Label    string    `json:"sense_label,omitempty"`
	Chinese  string    `json:"chinese"`
	English  string    `json:"english"`
	Examples []Example `json:"examples,omitempty"`
}

// Idiom is a fixed expression listed under a part-of-speech group.
type Idiom struct {
	Title    string    `json:"idiom"`
	Chinese  string    `json:"chinese"`
	English  string    `json:"english"`
	Examples []Example `json:"examples,omitempty"`
}

// SenseGroup bundles the senses and idioms for one part of speech from
// the authoritative bilingual tab.
type SenseGroup struct {
	PartOfSpeech string  `json:"part_of_speech"`
	Senses       []Sense `json:"senses"`
	Idioms       []Idiom `json:"idioms,omitempty"`
}

// SimpleGroup carries the flat definition list from the EC or EE tab.
type SimpleGroup struct {
	PartOfSpeech string   `json:"part_of_speech"`
	Definitions  []string `json:"definitions"`
}

// WordGroup is a labeled list of related words (collocations, synonyms,
// antonyms). The label is a part of speech or a collocation category.
type WordGroup struct {
	Label string   `json:"label"`
	Items []string `json:"items"`
}

// Entry is the structured parse of one word's dictionary page. Produced
// once per word by a Fetcher and immutable afterwards.
type Entry struct {
	Headword       string            `json:"headword"`
	Pronunciations map[string]string `json:"pronunciations,omitempty"`
	Groups         []SenseGroup      `json:"definitions,omitempty"`
	CrossDefs      []SimpleGroup     `json:"cross_definitions,omitempty"`
	HomoDefs       []SimpleGroup     `json:"homo_definitions,omitempty"`
	Collocations   []WordGroup       `json:"collocations,omitempty"`
	Synonyms       []WordGroup       `json:"synonyms,omitempty"`
	Antonyms       []WordGroup       `json:"antonyms,omitempty"`
}

// Outcome is the per-word result routed from a worker to the sinks.
// Entry is nil when the word was not found or the fetch exhausted its
// retries.
type Outcome struct {
	Word        string
	Entry       *Entry
	Err         error
	Attempts    int
	Duration    time.Duration
	SnapshotURI string
	FetchedAt   time.Time
}

// Found reports whether the fetch produced a definition.
func (o Outcome) Found() bool {
	return o.Entry != nil
}

// Summary aggregates a completed batch run.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	NotFound  int
	Skipped   int
	Dropped   int
	Elapsed   time.Duration
}
