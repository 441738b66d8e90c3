package matcher

import (
	"regexp"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

var (
	legalSuffixPattern = regexp.MustCompile(`\b(llc|inc|corp|ltd|co|l\.l\.c\.|l\.p\.|lp)\b`)
	punctuationPattern = regexp.MustCompile(`[^\w\s]`)
)

// CleanCompanyName normalizes a company name or transaction description for
// comparison: lowercase, legal suffixes removed, punctuation replaced with
// spaces, whitespace collapsed.
func CleanCompanyName(name string) string {
	if name == "" {
		return ""
	}
	name = strings.ToLower(name)
	name = legalSuffixPattern.ReplaceAllString(name, "")
	name = punctuationPattern.ReplaceAllString(name, " ")
	return strings.Join(strings.Fields(name), " ")
}

// coreSuffixWords are business-entity words stripped when extracting the
// distinctive core of a company name.
var coreSuffixWords = map[string]bool{
	"llc": true, "inc": true, "corp": true, "corporation": true, "ltd": true,
	"limited": true, "lp": true, "llp": true,
	"owner": true, "owners": true, "ownership": true,
	"properties": true, "property": true, "prop": true,
	"group": true, "holdings": true, "holding": true,
	"investments": true, "investment": true, "invest": true,
	"management": true, "mgmt": true, "mgt": true,
	"partners": true, "partner": true,
	"associates": true, "assoc": true,
	"enterprises": true, "enterprise": true,
	"company": true, "co": true,
	"realty": true, "development": true, "dev": true,
	"capital": true, "cap": true,
	"ventures": true, "venture": true,
	"trust": true, "tr": true,
	"fund": true, "funds": true,
	"mf": true,
}

// extractCompanyCore strips business-entity suffix words, leaving the part of
// the name that actually distinguishes the company.
func extractCompanyCore(cleaned string) string {
	var kept []string
	for _, word := range strings.Fields(cleaned) {
		if !coreSuffixWords[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// ignoredWords are generic business terms excluded from word-overlap scoring.
var ignoredWords = map[string]bool{
	"llc": true, "inc": true, "corp": true, "ltd": true, "lp": true, "llp": true,
	"the": true, "of": true, "and": true, "at": true, "in": true, "on": true,
	"for": true, "a": true, "an": true,
	"owner": true, "owners": true, "co": true, "company": true,
	"properties": true, "property": true, "group": true, "holdings": true,
	"management": true, "mgmt": true, "partners": true, "associates": true,
	"investments": true, "investment": true, "enterprises": true,
	"real": true, "estate": true, "realty": true, "development": true,
	"capital": true, "ventures": true, "trust": true, "fund": true,
}

// meaningfulWords returns the set of words in a cleaned company name that
// carry identity, with generic business terms removed.
func meaningfulWords(cleaned string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(cleaned) {
		if !ignoredWords[word] {
			words[word] = true
		}
	}
	return words
}

// fuzzySubstringMatch slides a window of up to four words across the haystack
// and returns the best similarity ratio between the needle and any window.
// This catches company names embedded in longer bank descriptions even when
// misspelled.
func fuzzySubstringMatch(needle, haystack string) float64 {
	if len(needle) < 3 {
		return 0
	}

	best := 0
	words := strings.Fields(haystack)
	for i := range words {
		for j := i + 1; j <= len(words) && j <= i+4; j++ {
			window := strings.Join(words[i:j], " ")
			if float64(len(window)) >= float64(len(needle))*0.7 {
				if score := fuzzy.Ratio(needle, window); score > best {
					best = score
				}
			}
		}
	}
	return float64(best)
}

// countFuzzyWordMatches counts company words that fuzzy-match a transaction
// word above the threshold, skipping words already matched exactly and words
// too short to compare reliably.
func countFuzzyWordMatches(companyWords, transWords map[string]bool, threshold int) int {
	count := 0
	for cw := range companyWords {
		if transWords[cw] || len(cw) < 3 {
			continue
		}
		for tw := range transWords {
			if len(tw) < 3 {
				continue
			}
			if fuzzy.Ratio(cw, tw) >= threshold {
				count++
				break
			}
		}
	}
	return count
}

// scoreName computes the name-similarity score (0-100) between a transaction
// description and an invoice company name, using tiered strategies from
// strongest to weakest signal.
func (e *Engine) scoreName(description, companyName string) float64 {
	transDesc := CleanCompanyName(description)
	company := CleanCompanyName(companyName)
	if transDesc == "" || company == "" {
		return 0
	}

	// Processor names are noise in the description, not identity.
	for _, name := range processorNames() {
		transDesc = strings.ReplaceAll(transDesc, name, "")
	}
	transDesc = strings.Join(strings.Fields(transDesc), " ")

	core := extractCompanyCore(company)

	// Tier 1: the core company name appears verbatim in the description.
	if len(core) >= 5 && strings.Contains(transDesc, core) {
		return 100
	}

	// Tier 2: fuzzy substring, tolerating misspellings.
	if score := fuzzySubstringMatch(core, transDesc); score >= 90 {
		return 98
	} else if score >= 80 {
		return 92
	}

	// Tier 3: overlap of meaningful words, exact plus typo-tolerant.
	transWords := make(map[string]bool)
	for _, w := range strings.Fields(transDesc) {
		transWords[w] = true
	}
	companyWords := meaningfulWords(company)

	if len(companyWords) > 0 {
		exact := 0
		for w := range companyWords {
			if transWords[w] {
				exact++
			}
		}
		fuzzyMatches := countFuzzyWordMatches(companyWords, transWords, e.config.FuzzyWordThreshold)

		ratio := float64(exact+fuzzyMatches) / float64(len(companyWords))
		switch {
		case ratio >= 0.9:
			return 95
		case ratio >= 0.75:
			return 90
		case ratio >= 0.5:
			return 75 + ratio*20
		}
	}

	// Tier 4: generic fuzzy-ratio fallback.
	best := fuzzy.PartialRatio(transDesc, company)
	if tokenRatio := fuzzy.TokenSetRatio(transDesc, company); tokenRatio > best {
		best = tokenRatio
	}
	if strings.Contains(transDesc, company) || strings.Contains(company, transDesc) {
		best += 20
		if best > 100 {
			best = 100
		}
	}
	return float64(best)
}
