package matcher

import (
	"strings"

	"ar-collections-service/internal/models"
)

// Processor describes a known payment processor recognized in transaction
// descriptions. Fee rates are informational: expected amounts are compared
// directly to invoice amounts, and the tiered amount score already tolerates
// small fee deductions.
type Processor struct {
	Name       string
	Keywords   []string
	FeePercent float64
	FeeFixed   float64
}

// knownProcessors is the fixed detection table. Keywords are matched
// case-insensitively against the raw transaction description.
var knownProcessors = []Processor{
	{Name: "stripe", Keywords: []string{"stripe", "st-"}, FeePercent: 3.5, FeeFixed: 0.30},
	{Name: "avidpay", Keywords: []string{"avidpay"}, FeePercent: 1.0},
	{Name: "ach", Keywords: []string{"ach", "sec:ccd", "sec:ppd"}},
	{Name: "wire", Keywords: []string{"fedwire", "chips", "wire"}},
	{Name: "rtp", Keywords: []string{"real time payment"}},
	{Name: "zelle", Keywords: []string{"zelle"}},
	{Name: "amex", Keywords: []string{"american express"}},
}

// DetectProcessor scans the transaction description for known processor
// keywords. It returns nil when no processor is recognized.
func DetectProcessor(t *models.Transaction) *Processor {
	description := strings.ToLower(t.Description)
	for i := range knownProcessors {
		for _, keyword := range knownProcessors[i].Keywords {
			if strings.Contains(description, keyword) {
				return &knownProcessors[i]
			}
		}
	}
	return nil
}

// processorNames returns the detection table's processor names, used to strip
// processor noise out of descriptions before name comparison.
func processorNames() []string {
	names := make([]string, len(knownProcessors))
	for i, p := range knownProcessors {
		names[i] = p.Name
	}
	return names
}
