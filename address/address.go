// Package address extracts and normalizes candidate email addresses from a
// message's structured fields and its raw header map.
package address

import (
	"regexp"
	"strings"

	"mailsort/client"
)

// Headers consulted beyond the structured recipient fields. Mailing-list
// software often hides the true recipient in one of these.
const (
	listRecipientHeader = "x-github-recipient-address"
	deliveredToHeader   = "delivered-to"
	fromHeader          = "from"
	replyToHeader       = "reply-to"
)

var nameWithAddr = regexp.MustCompile(`^.*<(.*)>$`)

// Normalize strips the address wrappers commonly found in header values:
// a single pair of outer angle brackets, and the "Display Name <address>"
// form. Applying it twice yields the same result as once.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		s = s[1 : len(s)-1]
	}
	if m := nameWithAddr.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return s
}

// Recipients builds the recipients candidate pool: bcc, cc, the primary
// recipient list, then the list-recipient and Delivered-To headers, in that
// order, normalized and deduplicated preserving first occurrence. An empty
// result is valid.
func Recipients(msg client.Message, detail client.MessageDetail) []string {
	raw := make([]string, 0, len(msg.BccList)+len(msg.CcList)+len(msg.Recipients)+2)
	raw = append(raw, msg.BccList...)
	raw = append(raw, msg.CcList...)
	raw = append(raw, msg.Recipients...)
	raw = append(raw, detail.Headers[listRecipientHeader]...)
	raw = append(raw, detail.Headers[deliveredToHeader]...)
	return normalizeAll(raw)
}

// Senders builds the senders candidate pool from the author field and the
// From and Reply-To headers, with the same normalization and dedup policy
// as Recipients.
func Senders(msg client.Message, detail client.MessageDetail) []string {
	raw := make([]string, 0, 3)
	raw = append(raw, msg.Author)
	raw = append(raw, detail.Headers[fromHeader]...)
	raw = append(raw, detail.Headers[replyToHeader]...)
	return normalizeAll(raw)
}

func normalizeAll(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		addr := Normalize(r)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
