package sudact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"courtparser-engine/internal/domain"
)

const fragment = `<ul class="results">
<li><h4><a href="/vsrf/doc/abc/">Определение Верховного Суда РФ № А40-12345/2023 от 1 марта 2024</a></h4>
<div class="b-justice">Судебная коллегия по экономическим спорам<div class="addution">Суть спора: О взыскании долга</div></div></li>
<li><h4><a href="/vsrf/doc/def/">Решение по делу № 5-КГ23-1</a></h4></li>
<li><p>без заголовка</p></li>
</ul>`

func TestCaseNumber(t *testing.T) {
	require.Equal(t, "А40-12345/2023", CaseNumber("Определение № А40-12345/2023 от ..."))
	require.Equal(t, "А41-1/2022", CaseNumber("по дело А41-1/2022"))
	require.Equal(t, "", CaseNumber("Решение по делу № 5-КГ23-1"))
}

func TestParse(t *testing.T) {
	cases, err := Parse(fragment, DefaultBaseURL)
	require.NoError(t, err)
	require.Len(t, cases, 2)

	c := cases[0]
	require.Equal(t, "https://sudact.ru/vsrf/doc/abc/", c.Link)
	require.Equal(t, "А40-12345/2023", c.CaseNumber)
	require.Equal(t, "Судебная коллегия по экономическим спорам", c.CourtType)
	require.Equal(t, "Суть спора: О взыскании долга", c.Description)
	require.Equal(t, "О взыскании долга", c.Subject)
	require.Equal(t, Region, c.Region)
	require.Equal(t, domain.DecisionNotFound, c.DecisionType)
}

func TestSearchOverHTTP(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vsrf/doc_ajax/", r.URL.Path)
		gotQuery = r.URL.Query().Get("vsrf-txt")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]string{"content": fragment})
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, Query: "заем"})
	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "заем", gotQuery)
	require.Equal(t, "sudact", res.Source)
	require.Len(t, res.Cases, 2)
	require.Equal(t, srv.URL+"/vsrf/doc/abc/", res.Cases[0].Link)
}

func TestSearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vsrf-txt") == "bad" {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"other": "<ul class=\"results\"></ul>"}`))
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL})
	_, err := s.Search(context.Background(), "bad")
	require.Error(t, err)

	cases, err := s.Search(context.Background(), "ok")
	require.NoError(t, err)
	require.Empty(t, cases)
}
