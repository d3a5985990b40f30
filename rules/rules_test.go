package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailsort/client"
)

func TestFindFirstRuleWins(t *testing.T) {
	ruleSet := []Rule{
		{Expression: "@x\\.com$", Output: "first"},
		{Expression: "@x\\.com$", Output: "second"},
	}

	m, ok := Find(ruleSet, []string{"a@x.com"}, nil)
	require.True(t, ok)
	assert.Equal(t, "first", m.Slug)
	assert.Equal(t, "a@x.com", m.Address)
	assert.Equal(t, TargetRecipients, m.MatchedOn)
}

func TestFindFirstCandidateWins(t *testing.T) {
	ruleSet := []Rule{{Expression: "([^.]+)@x\\.com$", Output: "$1"}}

	m, ok := Find(ruleSet, []string{"nope@y.org", "team@x.com", "late@x.com"}, nil)
	require.True(t, ok)
	assert.Equal(t, "team@x.com", m.Address)
	assert.Equal(t, "team", m.Slug)
}

func TestFindSendersTarget(t *testing.T) {
	ruleSet := []Rule{{Expression: "^news@", Output: "newsletters", MatchOn: TargetSenders}}

	m, ok := Find(ruleSet, nil, []string{"news@list.example.org"})
	require.True(t, ok)
	assert.Equal(t, "newsletters", m.Slug)
	assert.Equal(t, TargetSenders, m.MatchedOn)
}

func TestFindEmptyPoolDoesNotShortCircuit(t *testing.T) {
	// Rule 1 targets an empty recipients pool; rule 2 must still be tried.
	ruleSet := []Rule{
		{Expression: ".*", Output: "never", MatchOn: TargetRecipients},
		{Expression: "^news@", Output: "newsletters", MatchOn: TargetSenders},
	}

	m, ok := Find(ruleSet, nil, []string{"news@list.example.org"})
	require.True(t, ok)
	assert.Equal(t, "newsletters", m.Slug)
}

func TestFindInvalidExpressionSkipped(t *testing.T) {
	ruleSet := []Rule{
		{Expression: "([unclosed", Output: "broken"},
		{Expression: "([^.]+)@x\\.com$", Output: "$1"},
	}

	m, ok := Find(ruleSet, []string{"team@x.com"}, nil)
	require.True(t, ok)
	assert.Equal(t, "team", m.Slug)
}

func TestFindNoMatch(t *testing.T) {
	ruleSet := []Rule{{Expression: "@x\\.com$", Output: "x"}}

	_, ok := Find(ruleSet, []string{"a@y.org"}, []string{"b@y.org"})
	assert.False(t, ok)

	_, ok = Find(ruleSet, nil, nil)
	assert.False(t, ok)

	_, ok = Find(nil, []string{"a@x.com"}, nil)
	assert.False(t, ok)
}

func TestCalculateSlug(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		addr string
		want string
	}{
		{"capture group", Rule{Expression: `([^.]+)@x\.com$`, Output: "$1"}, "team@x.com", "team"},
		{"literal output", Rule{Expression: "^news@", Output: "newsletters"}, "news@x.com", "newsletters"},
		{"absent group left verbatim", Rule{Expression: `([^.]+)@x\.com$`, Output: "$1-$2"}, "team@x.com", "team-$2"},
		{"optional group not participating", Rule{Expression: `(a)?(team)@x\.com$`, Output: "$1$2"}, "team@x.com", "$1team"},
		{"whole match via group zero", Rule{Expression: `team`, Output: "$0!"}, "team@x.com", "team!"},
		{"surrounding text verbatim", Rule{Expression: `(team)@`, Output: "pre-$1-post"}, "team@x.com", "pre-team-post"},
		{"dollar without digit verbatim", Rule{Expression: `team`, Output: "cost$"}, "team@x.com", "cost$"},
		{"no recursive substitution", Rule{Expression: `(\$2)(x)`, Output: "$1"}, "$2x", "$2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Find([]Rule{tt.rule}, []string{tt.addr}, nil)
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Slug)
		})
	}
}

func TestDefault(t *testing.T) {
	accounts := []client.Account{
		{Type: "imap", Identities: []client.Identity{{Email: "a@x.com"}, {Email: "b@x.com"}}},
		{Type: "pop3", Identities: []client.Identity{{Email: "c@y.org"}}},
		{Type: "nntp", Identities: []client.Identity{{Email: "d@news.example"}}},
	}

	got := Default(accounts)
	require.Len(t, got, 2)
	assert.Equal(t, Rule{Expression: `([^.]+)@x\.com$`, Output: "$1", MatchOn: TargetRecipients}, got[0])
	assert.Equal(t, Rule{Expression: `([^.]+)@y\.org$`, Output: "$1", MatchOn: TargetRecipients}, got[1])
}

func TestDefaultRulesMatchOwnDomainOnly(t *testing.T) {
	accounts := []client.Account{
		{Type: "imap", Identities: []client.Identity{{Email: "me@x.com"}}},
	}
	ruleSet := Default(accounts)

	m, ok := Find(ruleSet, []string{"team@x.com"}, nil)
	require.True(t, ok)
	assert.Equal(t, "team", m.Slug)

	// The escaped dot must not act as a wildcard.
	_, ok = Find(ruleSet, []string{"team@xacom"}, nil)
	assert.False(t, ok)
}

func TestDefaultSkipsMalformedIdentity(t *testing.T) {
	accounts := []client.Account{
		{Type: "imap", Identities: []client.Identity{{Email: "no-at-sign"}, {Email: "ok@x.com"}}},
	}

	got := Default(accounts)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Expression, `x\.com`)
}

func TestTargetJSONRoundTrip(t *testing.T) {
	in := []Rule{
		{Expression: "a", Output: "b", MatchOn: TargetRecipients},
		{Expression: "c", Output: "d", MatchOn: TargetSenders},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"expression":"a","output":"b","matchOn":"recipients"},
		{"expression":"c","output":"d","matchOn":"senders"}
	]`, string(data))

	var out []Rule
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestTargetUnmarshalLegacyAndUnknown(t *testing.T) {
	// Rule sets stored before matchOn existed have no such field.
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(`{"expression":"a","output":"b"}`), &r))
	assert.Equal(t, TargetRecipients, r.MatchOn)

	err := json.Unmarshal([]byte(`{"expression":"a","output":"b","matchOn":"subject"}`), &r)
	assert.Error(t, err)
}
