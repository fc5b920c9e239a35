package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a, b := h.Subscribe(), h.Subscribe()

	Emit(h, TypeBatchPublished, BatchPublished{RunID: "r1", Topic: "court_cases", Records: 4})

	for _, s := range []*Subscription{a, b} {
		e := <-s.C
		require.Equal(t, TypeBatchPublished, e.Type)
		require.Equal(t, 1, e.Version)

		var d BatchPublished
		require.NoError(t, json.Unmarshal(e.Data, &d))
		require.Equal(t, 4, d.Records)
	}

	h.Unsubscribe(a)
	_, open := <-a.C
	require.False(t, open)
	require.NotPanics(t, func() { h.Unsubscribe(a) })
}

func TestSubscribeFiltersByType(t *testing.T) {
	h := NewHub()
	fin := h.Subscribe(TypeCrawlFinished)

	Emit(h, TypeCaseEnriched, CaseEnriched{CaseNumber: "2-1/2024"})
	Emit(h, TypeCrawlFinished, CrawlFinished{RunID: "r1", Unit: "tatarstan", Cases: 12})

	require.Len(t, fin.C, 1)
	e := <-fin.C
	require.Equal(t, TypeCrawlFinished, e.Type)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	s := h.Subscribe()
	for i := 0; i < subscriberBuffer+6; i++ {
		Emit(h, TypeCaseEnriched, CaseEnriched{CaseNumber: "1"})
	}
	require.Len(t, s.C, cap(s.C))
	require.EqualValues(t, 6, s.Dropped())
}

func TestLatestKeepsLastCrawlOutcome(t *testing.T) {
	h := NewHub()
	Emit(h, TypeCrawlFinished, CrawlFinished{Unit: "a", Cases: 1})
	Emit(h, TypeBatchPublished, BatchPublished{Records: 3})
	Emit(h, TypeCrawlFinished, CrawlFinished{Unit: "b", Cases: 2})
	Emit(h, TypeCaseEnriched, CaseEnriched{CaseNumber: "x"})

	all := h.Latest()
	require.Len(t, all, 2)
	require.Equal(t, TypeBatchPublished, all[0].Type)
	require.Equal(t, TypeCrawlFinished, all[1].Type)

	var fin CrawlFinished
	require.NoError(t, json.Unmarshal(h.Latest(TypeCrawlFinished)[0].Data, &fin))
	require.Equal(t, "b", fin.Unit)
	require.Empty(t, h.Latest(TypeCaseEnriched))
}

func TestEventJSON(t *testing.T) {
	e := MakeEvent("req-1", TypeCrawlStarted, 1, CrawlStarted{RunID: "r", Unit: "u"})
	var back Event
	require.NoError(t, json.Unmarshal([]byte(e.JSON()), &back))
	require.Equal(t, "req-1", back.RequestID)
	require.JSONEq(t, `{"runId":"r","unit":"u"}`, string(back.Data))
}

func TestEmitNilHub(t *testing.T) {
	require.NotPanics(t, func() { Emit(nil, TypeCrawlStarted, nil) })
}
