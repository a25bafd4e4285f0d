package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/source"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

var gubernur = tiers.Tier{Name: "gubernur", Dataset: "pkwkp", CandidateScope: tiers.ScopeProvince, Policy: tiers.PolicyConfig{Prefix: "1000"}}

func newUpstream(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "500" {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, base string) *source.Client {
	t.Helper()
	c, err := source.New(source.Options{BaseURL: base, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestPaths(t *testing.T) {
	require.Equal(t, "pkwkp/0.json", source.ResultPath("pkwkp", models.NationalCode))
	require.Equal(t, "pkwkk/32/32.json", source.ResultPath("pkwkk", "32"))
	require.Equal(t, "paslon/pkwkp.json", source.CandidatesPath("pkwkp"))
	require.Equal(t, "district/32/32.json", source.DistrictsPath("32"))
}

func TestFetchResultTable(t *testing.T) {
	srv := newUpstream(t, map[string]string{
		"/pkwkp/32/32.json": `{"mode":"hhcw","ts":"2024-12-01 10:00:00","progres":{"total":10,"progres":5,"persen":50},"tungsura":{"table":{"3273":{"100021":4,"psu":"Reguler"}}}}`,
		"/pkwkp/0.json":     `{"mode":"hhcw","tungsura":{"chart":{"progres":{"total":1,"progres":1,"persen":100}},"table":{}}}`,
	})
	c := newClient(t, srv.URL)

	doc, err := c.FetchResultTable(context.Background(), gubernur, "32")
	require.NoError(t, err)
	require.Equal(t, []string{"3273"}, doc.Tungsura.Table.Codes())
	require.Equal(t, int64(5), doc.Progress.Progres)

	overview, err := c.FetchResultTable(context.Background(), gubernur, models.NationalCode)
	require.NoError(t, err)
	require.NotNil(t, overview.Tungsura.Chart.Progress)
}

func TestFetchErrors(t *testing.T) {
	srv := newUpstream(t, map[string]string{
		"/pkwkp/11/11.json": "500",
		"/pkwkp/12/12.json": "{not json",
	})
	c := newClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.FetchResultTable(ctx, gubernur, "31")
	require.True(t, errors.Is(err, source.ErrNotFound))

	_, err = c.FetchResultTable(ctx, gubernur, "11")
	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream exploded")

	_, err = c.FetchResultTable(ctx, gubernur, "12")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode results")

	_, err = c.FetchResultTable(ctx, gubernur, "../etc")
	require.True(t, errors.Is(err, source.ErrInvalidCode))

	_, err = c.FetchDistricts(ctx, "")
	require.True(t, errors.Is(err, source.ErrInvalidCode))
}

func TestFetchCandidatesAndDistricts(t *testing.T) {
	srv := newUpstream(t, map[string]string{
		"/paslon/pkwkp.json":  `{"32":{"100021":{"ts":"x","nama":"Paslon A","warna":"#ff0000","nomor_urut":1}}}`,
		"/district/32/32.json": `[{"nama":"KOTA BANDUNG","id":1,"kode":"3273","tingkat":2}]`,
	})
	c := newClient(t, srv.URL)

	m, err := c.FetchCandidateMap(context.Background(), gubernur)
	require.NoError(t, err)
	require.Equal(t, "Paslon A", m.For("32")["100021"].Name)
	require.Equal(t, 1, m.For("32")["100021"].BallotNumber)

	list, err := c.FetchDistricts(context.Background(), "32")
	require.NoError(t, err)
	require.Equal(t, []models.Region{{Name: "KOTA BANDUNG", ID: 1, Code: "3273", Level: 2}}, list)

	require.NoError(t, c.Ping(context.Background(), gubernur))
}

func TestFetchHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := newClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchCandidateMap(ctx, gubernur)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := source.New(source.Options{BaseURL: "ftp://example.com"})
	require.Error(t, err)

	c, err := source.New(source.Options{RPS: 5})
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestStaticRepository(t *testing.T) {
	repo := source.NewStatic().
		PutResult("pkwkp", "32", &models.ResultDocument{Mode: "hhcw"}).
		PutCandidates("pkwkp", models.CandidateMap{"32": {}}).
		PutDistricts("32", []models.Region{{Code: "3273"}})
	ctx := context.Background()

	doc, err := repo.FetchResultTable(ctx, gubernur, "32")
	require.NoError(t, err)
	require.Equal(t, "hhcw", doc.Mode)
	require.Equal(t, 1, repo.Calls("pkwkp/32/32.json"))

	_, err = repo.FetchResultTable(ctx, gubernur, "33")
	require.True(t, errors.Is(err, source.ErrNotFound))

	boom := errors.New("boom")
	repo.Fail(source.CandidatesPath("pkwkp"), boom)
	_, err = repo.FetchCandidateMap(ctx, gubernur)
	require.True(t, errors.Is(err, boom))

	repo.Delay(source.DistrictsPath("32"), time.Hour)
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = repo.FetchDistricts(ctx, "32")
	require.True(t, errors.Is(err, context.Canceled))
}
