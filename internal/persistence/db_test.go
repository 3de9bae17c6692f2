package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/astrowheel/internal/aspects"
	"github.com/talgya/astrowheel/internal/chart"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "charts.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleConfig() chart.Config {
	mc := 280.5
	lat := 51.5
	return chart.Config{
		Houses: chart.HouseSettings{Ascendant: 15, Midheaven: &mc, Latitude: &lat, System: "Placidus"},
		Primary: map[string]chart.BodyInput{
			"sun":  {Longitude: 20.25},
			"moon": {Longitude: 200, Color: "#aaa"},
		},
		AspectSets: aspects.Relationships{Cross: &aspects.Settings{Orb: 2}},
	}
}

func TestSaveAndGetChart(t *testing.T) {
	db := openTest(t)
	saved, err := db.SaveChart("natal", sampleConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(saved.ID); err != nil {
		t.Errorf("id %q is not a uuid: %v", saved.ID, err)
	}
	if saved.System != "Placidus" || saved.CreatedAt == 0 || saved.CreatedAt != saved.UpdatedAt {
		t.Errorf("unexpected record %+v", saved)
	}

	got, err := db.GetChart(saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "natal" || got.Config.Houses.Midheaven == nil || *got.Config.Houses.Midheaven != 280.5 {
		t.Errorf("config not round-tripped: %+v", got.Config)
	}
	if got.Config.Primary["moon"].Color != "#aaa" || got.Config.AspectSets.Cross == nil || got.Config.AspectSets.Cross.Orb != 2 {
		t.Errorf("bodies or aspect sets lost: %+v", got.Config)
	}
}

func TestGetMissingChart(t *testing.T) {
	db := openTest(t)
	if _, err := db.GetChart("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := db.DeleteChart("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on delete, got %v", err)
	}
	if _, err := db.UpdateChart("nope", "x", sampleConfig()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
}

func TestListAndDeleteCharts(t *testing.T) {
	db := openTest(t)
	list, err := db.ListCharts(10)
	if err != nil {
		t.Fatal(err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("empty store should list no charts, got %#v", list)
	}

	ids := map[string]bool{}
	for _, name := range []string{"a", "b", "c"} {
		rec, err := db.SaveChart(name, sampleConfig())
		if err != nil {
			t.Fatal(err)
		}
		ids[rec.ID] = true
	}

	list, err = db.ListCharts(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("limit not applied: %d charts", len(list))
	}
	if n, err := db.CountCharts(); err != nil || n != 3 {
		t.Errorf("count = %d, %v", n, err)
	}

	for id := range ids {
		if err := db.DeleteChart(id); err != nil {
			t.Fatal(err)
		}
		break
	}
	if n, _ := db.CountCharts(); n != 2 {
		t.Errorf("count after delete = %d, want 2", n)
	}
}

func TestUpdateChart(t *testing.T) {
	db := openTest(t)
	saved, err := db.SaveChart("draft", sampleConfig())
	if err != nil {
		t.Fatal(err)
	}
	cfg := sampleConfig()
	cfg.Houses.System = "WholeSign"
	updated, err := db.UpdateChart(saved.ID, "final", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "final" || updated.System != "WholeSign" || updated.CreatedAt != saved.CreatedAt {
		t.Errorf("unexpected update result %+v", updated)
	}
	if updated.Config.Houses.System != "WholeSign" {
		t.Errorf("config not replaced: %+v", updated.Config.Houses)
	}
}

func TestMeta(t *testing.T) {
	db := openTest(t)
	if _, err := db.GetMeta("started_at"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := db.SaveMeta("started_at", "1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("started_at", "2"); err != nil {
		t.Fatal(err)
	}
	if v, err := db.GetMeta("started_at"); err != nil || v != "2" {
		t.Errorf("meta = %q, %v", v, err)
	}
}

func TestReopenKeepsCharts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := db.SaveChart("kept", sampleConfig())
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.GetChart(rec.ID); err != nil {
		t.Errorf("chart lost across reopen: %v", err)
	}
}
