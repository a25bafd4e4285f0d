package dashboard_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/source"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

func defaultTiers(t *testing.T) (bupati, gubernur tiers.Tier) {
	t.Helper()
	set, err := tiers.Default()
	require.NoError(t, err)
	bupati, err = set.Get("bupati")
	require.NoError(t, err)
	gubernur, err = set.Get("gubernur")
	require.NoError(t, err)
	return bupati, gubernur
}

func doc(t *testing.T, raw string) *models.ResultDocument {
	t.Helper()
	var d models.ResultDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return &d
}

const overviewJSON = `{
	"mode": "hhcw",
	"ts": "2024-12-01 10:00:00",
	"progres": {"total": 400, "progres": 100, "persen": 25},
	"tungsura": {
		"chart": {"progres": {"total": 400, "progres": 100, "persen": 25}},
		"table": {
			"35": {"psu": "Reguler", "progres": {"total": 200, "progres": 50, "persen": 25}, "status_progress": true, "100031": 30, "100032": 10},
			"32": {"psu": "Reguler", "progres": {"total": 200, "progres": 50, "persen": 25}, "status_progress": true, "100021": 60, "100022": 40},
			"99": {"psu": "Reguler", "progres": {"total": 0, "progres": 0, "persen": 0}, "status_progress": false}
		}
	}
}`

const gubernurJabarJSON = `{
	"mode": "hhcw",
	"ts": "2024-12-01 11:00:00",
	"progres": {"total": 300, "progres": 150, "persen": 50},
	"tungsura": {
		"table": {
			"3273": {"psu": "Reguler", "progres": {"total": 100, "progres": 40, "persen": 40}, "status_progress": true, "100021": 3, "100022": 1},
			"3201": {"psu": "Reguler", "progres": {"total": 200, "progres": 110, "persen": 55}, "status_progress": true, "100021": 5, "100022": "-"}
		}
	}
}`

const bupatiJabarJSON = `{
	"mode": "hhcw",
	"ts": "2024-12-01 11:00:00",
	"progres": {"total": 300, "progres": 150, "persen": 50},
	"tungsura": {
		"table": {
			"3273": {"psu": "Reguler", "progres": {"total": 100, "progres": 40, "persen": 40}, "status_progress": true, "200101": 7, "200102": 3}
		}
	}
}`

func fixtureRepo(t *testing.T) *source.Static {
	t.Helper()
	return source.NewStatic().
		PutResult("pkwkp", models.NationalCode, doc(t, overviewJSON)).
		PutResult("pkwkp", "32", doc(t, gubernurJabarJSON)).
		PutResult("pkwkk", "32", doc(t, bupatiJabarJSON)).
		PutCandidates("pkwkp", models.CandidateMap{
			"32": {
				"100021": {Name: "Paslon Satu", Color: "#e11d48", BallotNumber: 1},
				"100022": {Name: "Paslon Dua", Color: "#2563eb", BallotNumber: 2},
			},
			"35": {
				"100031": {Name: "Paslon Tiga", Color: "#16a34a", BallotNumber: 1},
			},
		}).
		PutCandidates("pkwkk", models.CandidateMap{
			"3273": {"200101": {Name: "Calon Kota", Color: "#f59e0b", BallotNumber: 1}},
		}).
		PutDistricts("32", []models.Region{
			{Name: "KOTA BANDUNG", ID: 1, Code: "3273", Level: 2},
			{Name: "BOGOR", ID: 2, Code: "3201", Level: 2},
		})
}
