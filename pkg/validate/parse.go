package validate

import (
	"regexp"
	"sort"
	"strings"
)

// Record is one structured row extracted from raw command output.
type Record map[string]string

// ParseResult is the structured extraction produced by running a template
// against raw output.
type ParseResult struct {
	Records []Record
	// Fields is the dominant field set (sorted), used by the scoring
	// formula's field-richness and consistency factors.
	Fields []string
	// dominantCount is how many records share Fields exactly.
	dominantCount int
}

// Parse runs a template body against raw output. Each non-empty, non-comment
// line of the body is a Go regular expression with named capture groups
// (?P<field>...); every output line is tested against each pattern in
// order, and the first pattern to match contributes one record built from
// its named groups. No library in the retrieved corpus implements
// structured-text template extraction, so this is a minimal regex-line
// engine in the spirit of the convention templates are named after
// (vendor_os_command).
func Parse(body, raw string) ParseResult {
	patterns := compilePatterns(body)
	if len(patterns) == 0 {
		return ParseResult{}
	}

	var records []Record
	for _, line := range strings.Split(raw, "\n") {
		for _, re := range patterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			rec := make(Record)
			for i, name := range re.SubexpNames() {
				if i == 0 || name == "" {
					continue
				}
				rec[name] = m[i]
			}
			if len(rec) > 0 {
				records = append(records, rec)
			}
			break
		}
	}

	fields, dominantCount := dominantFieldSet(records)
	return ParseResult{Records: records, Fields: fields, dominantCount: dominantCount}
}

func compilePatterns(body string) []*regexp.Regexp {
	var patterns []*regexp.Regexp
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		re, err := regexp.Compile(line)
		if err != nil {
			continue
		}
		patterns = append(patterns, re)
	}
	return patterns
}

// dominantFieldSet returns the most common sorted field-name set across
// records, and how many records carry exactly that set.
func dominantFieldSet(records []Record) ([]string, int) {
	counts := make(map[string]int)
	sigToFields := make(map[string][]string)

	for _, rec := range records {
		fields := make([]string, 0, len(rec))
		for k := range rec {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		sig := strings.Join(fields, ",")
		counts[sig]++
		sigToFields[sig] = fields
	}

	var bestSig string
	best := -1
	for sig, count := range counts {
		if count > best {
			best = count
			bestSig = sig
		}
	}
	if best < 0 {
		return nil, 0
	}
	return sigToFields[bestSig], best
}

// populated counts non-empty cells among Fields across every record,
// treating a record missing one of the dominant fields as empty for it.
func (p ParseResult) populated() int {
	count := 0
	for _, rec := range p.Records {
		for _, f := range p.Fields {
			if rec[f] != "" {
				count++
			}
		}
	}
	return count
}
