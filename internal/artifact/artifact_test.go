package artifact

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fraudlens/fraudlens/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func validModelJSON() string {
	names := domain.FieldNames()
	var b strings.Builder
	b.WriteString(`{"features":[`)
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q", name)
	}
	b.WriteString(`],"weights":{`)
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:%g", name, 0.01*float64(i+1))
	}
	b.WriteString(`},"intercept":-4.5,"threshold":0.5}`)
	return b.String()
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "model.json", validModelJSON())

	m, err := LoadModel(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got := len(m.FeatureOrder()); got != domain.FieldCount {
		t.Errorf("expected %d features, got %d", domain.FieldCount, got)
	}
	if m.Threshold() != 0.5 {
		t.Errorf("expected threshold 0.5, got %v", m.Threshold())
	}
}

func TestLoadModelErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"NotJSON", "not json"},
		{"NoFeatures", `{"features":[],"weights":{},"intercept":0,"threshold":0.5}`},
		{"UnknownField", `{"features":["V99"],"weights":{"V99":1},"intercept":0,"threshold":0.5}`},
		{"BadThreshold", `{"features":["V1"],"weights":{"V1":1},"intercept":0,"threshold":1.5}`},
		{"MissingWeight", `{"features":["V1","V2"],"weights":{"V1":1},"intercept":0,"threshold":0.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".json", tt.content)
			if _, err := LoadModel(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	if _, err := LoadModel(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadScaler(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scaler.json",
		`{"fields":["Amount","Time"],"mean":[88.35,94813.86],"scale":[250.12,47488.14]}`)

	scaler, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	fields := scaler.Fields()
	if len(fields) != 2 || fields[0] != "Amount" || fields[1] != "Time" {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestLoadScalerErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"NotJSON", "{"},
		{"LengthMismatch", `{"fields":["Amount"],"mean":[1,2],"scale":[1]}`},
		{"ZeroScale", `{"fields":["Amount"],"mean":[1],"scale":[0]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".json", tt.content)
			if _, err := LoadScaler(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadBackgroundCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "background.csv",
		"Time,Amount,V1\n0,10.5,-1.2\n100,20,0.5\n200,30.25,1.7\n")

	bg, err := LoadBackground(domain.ArtifactConfig{
		Dir:              dir,
		BackgroundDriver: "csv",
		BackgroundFile:   "background.csv",
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if bg.Rows() != 3 {
		t.Errorf("expected 3 rows, got %d", bg.Rows())
	}
	if !bg.HasColumn("Amount") {
		t.Error("expected Amount column")
	}

	means, err := bg.Means([]string{"Amount"})
	if err != nil {
		t.Fatalf("means failed: %v", err)
	}
	if want := (10.5 + 20 + 30.25) / 3; means[0] != want {
		t.Errorf("expected Amount mean %v, got %v", want, means[0])
	}
}

func TestLoadBackgroundCSVErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"NonNumeric", "Time,Amount\n0,abc\n"},
		{"RaggedRow", "Time,Amount\n0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeFile(t, dir, tt.name+".csv", tt.content)
			_, err := LoadBackground(domain.ArtifactConfig{
				Dir:              dir,
				BackgroundDriver: "csv",
				BackgroundFile:   tt.name + ".csv",
			})
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadBackgroundSQLite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "background.db")

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE background ("Time" REAL, "Amount" REAL)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	for _, row := range [][2]float64{{0, 10}, {60, 20}, {120, 60}} {
		if _, err := db.Exec(`INSERT INTO background VALUES (?, ?)`, row[0], row[1]); err != nil {
			t.Fatalf("failed to insert row: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("failed to close sqlite: %v", err)
	}

	bg, err := LoadBackground(domain.ArtifactConfig{
		Dir:              dir,
		BackgroundDriver: "sqlite",
		BackgroundFile:   "background.db",
		BackgroundTable:  "background",
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if bg.Rows() != 3 {
		t.Errorf("expected 3 rows, got %d", bg.Rows())
	}
	means, err := bg.Means([]string{"Amount", "Time"})
	if err != nil {
		t.Fatalf("means failed: %v", err)
	}
	if means[0] != 30 || means[1] != 60 {
		t.Errorf("unexpected means %v", means)
	}
}

func TestLoadBackgroundBadDriver(t *testing.T) {
	_, err := LoadBackground(domain.ArtifactConfig{
		Dir:              t.TempDir(),
		BackgroundDriver: "postgres",
		BackgroundFile:   "background.csv",
	})
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestLoadBundle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "model.json", validModelJSON())
	writeFile(t, dir, "scaler.json",
		`{"fields":["Amount","Time"],"mean":[88.35,94813.86],"scale":[250.12,47488.14]}`)

	header := strings.Join(domain.FieldNames(), ",")
	row := strings.TrimSuffix(strings.Repeat("0,", domain.FieldCount), ",")
	writeFile(t, dir, "background.csv", header+"\n"+row+"\n"+row+"\n")

	bundle, err := Load(domain.ArtifactConfig{
		Dir:              dir,
		ModelFile:        "model.json",
		ScalerFile:       "scaler.json",
		BackgroundDriver: "csv",
		BackgroundFile:   "background.csv",
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if bundle.Model == nil || bundle.Scaler == nil || bundle.Background == nil {
		t.Fatal("bundle has nil components")
	}
	if bundle.Background.Rows() != 2 {
		t.Errorf("expected 2 background rows, got %d", bundle.Background.Rows())
	}
}
