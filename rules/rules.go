// Package rules holds the routing rule model, the first-match-wins matcher
// and the default rule synthesis derived from account identities.
package rules

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"mailsort/client"
)

// Target selects which candidate pool a rule is evaluated against.
type Target int

const (
	// TargetRecipients is the zero value; stored rule sets from before the
	// matchOn field existed unmarshal to it.
	TargetRecipients Target = iota
	TargetSenders
)

func (t Target) String() string {
	if t == TargetSenders {
		return "senders"
	}
	return "recipients"
}

func (t Target) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "recipients", "":
		*t = TargetRecipients
	case "senders":
		*t = TargetSenders
	default:
		return fmt.Errorf("unknown match target %q", s)
	}
	return nil
}

// Rule is one routing decision: a regular expression tested against the
// addresses of its target pool, and an output template producing the
// destination folder name. "$N" in the output references capture group N.
type Rule struct {
	Expression string `json:"expression"`
	Output     string `json:"output"`
	MatchOn    Target `json:"matchOn"`
}

// Match is the result of a successful rule evaluation.
type Match struct {
	Address   string
	Slug      string
	MatchedOn Target
}

// Find evaluates rules in order against the pool each rule targets and
// returns the first hit: the first rule with any matching candidate, and
// within that rule the first matching candidate in pool order. A rule whose
// expression does not compile is logged and skipped; later rules still run.
func Find(ruleSet []Rule, recipients, senders []string) (Match, bool) {
	for _, rule := range ruleSet {
		re, err := regexp.Compile(rule.Expression)
		if err != nil {
			log.Printf("Rules: skipping rule with invalid expression %q: %v", rule.Expression, err)
			continue
		}
		pool := recipients
		if rule.MatchOn == TargetSenders {
			pool = senders
		}
		for _, addr := range pool {
			idx := re.FindStringSubmatchIndex(addr)
			if idx == nil {
				continue
			}
			return Match{
				Address:   addr,
				Slug:      calculateSlug(rule.Output, addr, idx),
				MatchedOn: rule.MatchOn,
			}, true
		}
	}
	return Match{}, false
}

// calculateSlug expands the output template in a single pass. A "$" followed
// by one digit substitutes the text of that capture group when the group
// participated in the match; otherwise the token stays verbatim. Substituted
// text is never rescanned.
func calculateSlug(output, addr string, idx []int) string {
	var b strings.Builder
	for i := 0; i < len(output); i++ {
		if output[i] == '$' && i+1 < len(output) && output[i+1] >= '0' && output[i+1] <= '9' {
			group := int(output[i+1] - '0')
			start, end := -1, -1
			if 2*group+1 < len(idx) {
				start, end = idx[2*group], idx[2*group+1]
			}
			if start >= 0 {
				b.WriteString(addr[start:end])
			} else {
				b.WriteString(output[i : i+2])
			}
			i++
			continue
		}
		b.WriteByte(output[i])
	}
	return b.String()
}

// Default synthesizes one rule per distinct mail domain found among the
// identities of the user's store-protocol accounts (newsgroup accounts are
// excluded). Each rule captures the local part in front of its domain and
// routes to it. Domain order follows first sighting.
func Default(accounts []client.Account) []Rule {
	seen := make(map[string]struct{})
	var ruleSet []Rule
	for _, acct := range accounts {
		if acct.Type != "imap" && acct.Type != "pop3" {
			continue
		}
		for _, id := range acct.Identities {
			_, domain, ok := strings.Cut(id.Email, "@")
			if !ok || domain == "" {
				continue
			}
			if _, dup := seen[domain]; dup {
				continue
			}
			seen[domain] = struct{}{}
			ruleSet = append(ruleSet, Rule{
				Expression: "([^.]+)@" + regexp.QuoteMeta(domain) + "$",
				Output:     "$1",
				MatchOn:    TargetRecipients,
			})
		}
	}
	return ruleSet
}
