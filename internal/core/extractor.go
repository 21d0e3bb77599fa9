package core

import (
	"regexp"
	"strings"

	"github.com/valter-silva-au/donewatch/pkg/models"
)

// wikiLinkPattern matches the first [[...]] token on a line, non-greedy.
var wikiLinkPattern = regexp.MustCompile(`\[\[(.*?)\]\]`)

// headingPrefix ends a section when seen after the marker.
const headingPrefix = "## "

// Section is the result of scanning a document for a heading-delimited section.
type Section struct {
	// Found is true when the marker line was present.
	Found bool
	Tasks []models.TaskRecord
}

// ExtractDoneTasks returns the wiki-linked entries under "## Done" in document
// order. The result is never nil.
func ExtractDoneTasks(text string) []models.TaskRecord {
	return ExtractSection(text, models.DoneHeading).Tasks
}

// ExtractSection scans text for a line whose trimmed content equals marker and
// collects the first wiki-link of every following line until the next "## "
// heading. Lines without a wiki-link are skipped.
func ExtractSection(text, marker string) Section {
	sec := Section{Tasks: []models.TaskRecord{}}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if !sec.Found {
			if strings.TrimSpace(line) == marker {
				sec.Found = true
			}
			continue
		}

		if strings.HasPrefix(line, headingPrefix) {
			break
		}

		m := wikiLinkPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sec.Tasks = append(sec.Tasks, models.TaskRecord{Title: strings.TrimSpace(m[1])})
	}

	return sec
}
