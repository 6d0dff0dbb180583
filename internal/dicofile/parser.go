// Package dicofile reads and writes the plain-text synonym dictionary format.
// Reader in, dictionary out; no database dependencies.
//
// The format lists radicals on one line each, followed by a line of
// space-separated flexions (possibly empty). A line holding only "$" ends
// that section; every following line is "<radical> <synonym> ..." and
// creates one new synonym group for the radical.
package dicofile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// SectionSeparator ends the radical section.
const SectionSeparator = "$"

const maxLineSize = 1 << 20

// errSkipLine signals that a line carries no record.
var errSkipLine = errors.New("skip line")

// Entry is one radical with its flexions, in file order.
type Entry struct {
	Line     int
	Radical  string
	Flexions []string
}

// SynonymLine is one synonym-group record.
type SynonymLine struct {
	Line     int
	Radical  string
	Synonyms []string
}

// ParseResult holds the parsed records.
type ParseResult struct {
	Entries  []Entry
	Synonyms []SynonymLine
	Stats    Stats
}

// Stats holds parser statistics for logging.
type Stats struct {
	TotalLines   int `json:"total_lines"`
	SkippedLines int `json:"skipped_lines"`
	Radicals     int `json:"radicals"`
	Flexions     int `json:"flexions"`
	Groups       int `json:"groups"`
	Synonyms     int `json:"synonyms"`
}

// ParseError reports a malformed line. It unwraps to domain.ErrValidation.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return domain.ErrValidation }

type section int

const (
	expectRadical section = iota
	expectFlexions
	expectSynonyms
)

// ParseFile opens path and parses it.
func ParseFile(path string) (ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a dictionary in text format. Blank lines are skipped where a
// radical or a synonym line is expected; a blank line after a radical is
// its (empty) flexion line.
func Parse(r io.Reader) (ParseResult, error) {
	var (
		res   ParseResult
		state = expectRadical
		entry Entry
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		res.Stats.TotalLines++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == SectionSeparator {
			if state == expectFlexions {
				res.Entries = append(res.Entries, entry)
			}
			state = expectSynonyms
			continue
		}

		switch state {
		case expectRadical:
			radical, err := parseRadical(line, lineNo)
			if errors.Is(err, errSkipLine) {
				res.Stats.SkippedLines++
				continue
			}
			if err != nil {
				return ParseResult{}, err
			}
			entry = Entry{Line: lineNo, Radical: radical}
			res.Stats.Radicals++
			state = expectFlexions

		case expectFlexions:
			entry.Flexions = parseWords(line)
			res.Stats.Flexions += len(entry.Flexions)
			res.Entries = append(res.Entries, entry)
			state = expectRadical

		case expectSynonyms:
			syn, err := parseSynonymLine(line, lineNo)
			if errors.Is(err, errSkipLine) {
				res.Stats.SkippedLines++
				continue
			}
			if err != nil {
				return ParseResult{}, err
			}
			res.Synonyms = append(res.Synonyms, syn)
			res.Stats.Groups++
			res.Stats.Synonyms += len(syn.Synonyms)
		}
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{}, fmt.Errorf("scanner error: %w", err)
	}

	// A radical on the last line has no flexion line.
	if state == expectFlexions {
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func parseRadical(line string, lineNo int) (string, error) {
	radical := domain.NormalizeWord(line)
	if radical == "" {
		return "", errSkipLine
	}
	if domain.ContainsSpace(radical) {
		return "", &ParseError{Line: lineNo, Msg: fmt.Sprintf("radical %q contains whitespace", radical)}
	}
	return radical, nil
}

func parseSynonymLine(line string, lineNo int) (SynonymLine, error) {
	words := parseWords(line)
	switch len(words) {
	case 0:
		return SynonymLine{}, errSkipLine
	case 1:
		return SynonymLine{}, &ParseError{Line: lineNo, Msg: fmt.Sprintf("radical %q has no synonym", words[0])}
	}
	return SynonymLine{Line: lineNo, Radical: words[0], Synonyms: words[1:]}, nil
}

func parseWords(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	words := make([]string, len(fields))
	for i, f := range fields {
		words[i] = domain.NormalizeWord(f)
	}
	return words
}
