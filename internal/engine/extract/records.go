// Package extract pulls named records out of a parsed page with CSS selectors.
package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Rule is one named selector evaluated relative to each record
type Rule struct {
	Name     string
	Selector string
}

// RulesFrom converts the wire-format name/selector list into rules, keeping order.
// Maps with several keys contribute one rule per key in unspecified order.
func RulesFrom(nameSelector []map[string]string) []Rule {
	rules := make([]Rule, 0, len(nameSelector))
	for _, pair := range nameSelector {
		for name, selector := range pair {
			rules = append(rules, Rule{Name: name, Selector: selector})
		}
	}
	return rules
}

// Validate compiles the record selector and every non-empty rule selector
func Validate(recordSelector string, rules []Rule) error {
	if recordSelector == "" {
		return fmt.Errorf("record selector is empty")
	}
	if _, err := cascadia.ParseGroup(recordSelector); err != nil {
		return fmt.Errorf("record selector %q: %w", recordSelector, err)
	}
	for i, rule := range rules {
		if rule.Selector == "" {
			continue
		}
		if _, err := cascadia.ParseGroup(rule.Selector); err != nil {
			return fmt.Errorf("field %d (%s) selector %q: %w", i, rule.Name, rule.Selector, err)
		}
	}
	return nil
}

// Records returns one map per element matching recordSelector, in document order.
//
// Each rule is evaluated relative to its record and takes the whitespace-normalised
// text of the first match, or "" when nothing matches. An empty rule selector takes
// the record's own text. When two rules share a name the later one wins.
func Records(doc *goquery.Document, recordSelector string, rules []Rule) []map[string]string {
	records := make([]map[string]string, 0)
	if doc == nil {
		return records
	}

	doc.Find(recordSelector).Each(func(_ int, rec *goquery.Selection) {
		records = append(records, parseRecord(rec, rules))
	})

	return records
}

func parseRecord(rec *goquery.Selection, rules []Rule) map[string]string {
	out := make(map[string]string, len(rules))
	for _, rule := range rules {
		if rule.Selector == "" {
			out[rule.Name] = NormalizeText(rec.Text())
			continue
		}
		out[rule.Name] = NormalizeText(rec.Find(rule.Selector).First().Text())
	}
	return out
}
