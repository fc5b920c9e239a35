package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetAndMarkError(t *testing.T) {
	c := CaseRecord{HasDecision: true, DecisionLink: "x", DecisionType: "Решение", DecisionContent: "text"}
	c.ResetDecision()
	require.False(t, c.HasDecision)
	require.Equal(t, DecisionNotFound, c.DecisionType)
	require.Empty(t, c.DecisionLink)
	require.Empty(t, c.DecisionContent)

	c.DecisionLink = "https://example/doc.pdf"
	c.MarkCheckError()
	require.Equal(t, DecisionCheckError, c.DecisionType)
	require.Empty(t, c.DecisionLink)
	require.True(t, c.DecisionConsistent())
}

func TestDecisionConsistent(t *testing.T) {
	cases := []struct {
		name string
		rec  CaseRecord
		ok   bool
	}{
		{"no decision", CaseRecord{}, true},
		{"file", CaseRecord{HasDecision: true, DecisionType: "Решение", DecisionLink: "https://a/b.pdf"}, true},
		{"not found type", CaseRecord{HasDecision: true, DecisionType: DecisionNotFound, DecisionLink: "x"}, false},
		{"empty link", CaseRecord{HasDecision: true, DecisionType: "Решение"}, false},
		{"empty type", CaseRecord{HasDecision: true, DecisionLink: "x"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.ok, tc.rec.DecisionConsistent())
		})
	}
}

func TestEmbeddedLink(t *testing.T) {
	c := CaseRecord{HasDecision: true, DecisionLink: EmbeddedLink("https://site/case/1")}
	require.True(t, c.IsEmbeddedDecision())
	c.DecisionLink = "https://site/decisions/1.pdf"
	require.False(t, c.IsEmbeddedDecision())
}
