// Package mutation categorises the nature of a file change.
//
// Classification is a layered heuristic over the pre- and post-write
// contents. The rule order and the 20% size threshold are contract values:
// they can legally misclassify (a large pure rename reads as
// INTENT_EVOLUTION) and consumers must treat the result as a best-effort
// label, not ground truth.
package mutation

import (
	"regexp"
	"sort"
	"strings"
)

// Class labels the nature of a mutation in the trace ledger.
type Class string

const (
	ClassASTRefactor     Class = "AST_REFACTOR"
	ClassIntentEvolution Class = "INTENT_EVOLUTION"
	ClassBugFix          Class = "BUG_FIX"
	ClassDocumentation   Class = "DOCUMENTATION"
)

// sizeThreshold is the relative content-size delta above which a change is
// considered an evolution of intent rather than a refactor.
const sizeThreshold = 0.20

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	switch c {
	case ClassASTRefactor, ClassIntentEvolution, ClassBugFix, ClassDocumentation:
		return true
	}
	return false
}

// bugFixPatterns match the line diff of a change that smells like a fix:
// fix vocabulary, failure vocabulary, and test-expectation vocabulary.
var bugFixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)fix(e[ds])?|bug|issue|repair|patch`),
	regexp.MustCompile(`(?i)undefined|null|error|exception|crash`),
	regexp.MustCompile(`(?i)should|expected|actual|assert`),
}

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`(?m)(//|#).*$`)
	starPrefixRe   = regexp.MustCompile(`(?m)^\s*\*+\s?`)
)

// Classify labels the change from old to new. Rules apply in order; the
// first match wins:
//
//  1. identical contents → DOCUMENTATION
//  2. identical after comment stripping → DOCUMENTATION
//  3. fix/failure/test vocabulary in the line diff → BUG_FIX
//  4. size delta beyond the threshold → INTENT_EVOLUTION
//  5. otherwise → AST_REFACTOR
func Classify(oldContent, newContent string) Class {
	if oldContent == newContent {
		return ClassDocumentation
	}

	if stripComments(oldContent) == stripComments(newContent) {
		return ClassDocumentation
	}

	diff := lineDiff(oldContent, newContent)
	for _, re := range bugFixPatterns {
		if re.MatchString(diff) {
			return ClassBugFix
		}
	}

	denom := len(oldContent)
	if denom < 1 {
		denom = 1
	}
	delta := len(newContent) - len(oldContent)
	if delta < 0 {
		delta = -delta
	}
	if float64(delta)/float64(denom) > sizeThreshold {
		return ClassIntentEvolution
	}

	return ClassASTRefactor
}

// Resolve prefers an explicitly declared class when it names a known value
// and falls back to Classify otherwise.
func Resolve(explicit, oldContent, newContent string) Class {
	if c := Class(explicit); c.Valid() {
		return c
	}
	return Classify(oldContent, newContent)
}

// stripComments removes block comments, line comments, and doc-block
// asterisk prefixes, then collapses the remaining lines to their trimmed,
// non-empty form.
func stripComments(s string) string {
	s = blockCommentRe.ReplaceAllString(s, "")
	s = lineCommentRe.ReplaceAllString(s, "")
	s = starPrefixRe.ReplaceAllString(s, "")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}

// lineDiff renders the multiset difference of lines between the two
// contents, added lines first, removed lines second. Order inside each side
// is lexical; only the presence of vocabulary matters downstream.
func lineDiff(oldContent, newContent string) string {
	oldCounts := lineCounts(oldContent)
	newCounts := lineCounts(newContent)

	var added, removed []string
	for line, n := range newCounts {
		for range max(0, n-oldCounts[line]) {
			added = append(added, line)
		}
	}
	for line, n := range oldCounts {
		for range max(0, n-newCounts[line]) {
			removed = append(removed, line)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	return "+" + strings.Join(added, "\n") + "\n-" + strings.Join(removed, "\n")
}

func lineCounts(s string) map[string]int {
	counts := make(map[string]int)
	for _, line := range strings.Split(s, "\n") {
		counts[line]++
	}
	return counts
}
