package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadCSV_Header(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles.csv")
	data := "title,source\n" +
		"\"Cabinet approves new rail line, says minister\",https://pib.gov.in/1\n" +
		"Monsoon session begins,https://pib.gov.in/2\n" +
		"Monsoon session begins,https://pib.gov.in/2\n" +
		",https://pib.gov.in/empty\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	want := []Statement{
		{Text: "Cabinet approves new rail line, says minister", Source: "https://pib.gov.in/1"},
		{Text: "Monsoon session begins", Source: "https://pib.gov.in/2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadCSV =\n%+v\nwant\n%+v", got, want)
	}
}

func TestLoadCSV_ReorderedAndHeaderless(t *testing.T) {
	dir := t.TempDir()

	reordered := filepath.Join(dir, "a.csv")
	os.WriteFile(reordered, []byte("source,title\nwiki,Paris is in France\n"), 0644)
	got, err := LoadCSV(reordered)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "Paris is in France" || got[0].Source != "wiki" {
		t.Errorf("reordered = %+v", got)
	}

	headerless := filepath.Join(dir, "b.csv")
	os.WriteFile(headerless, []byte("Paris is in France,wiki\nRome is in Italy\n"), 0644)
	got, err = LoadCSV(headerless)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Text != "Rome is in Italy" || got[1].Source != "" {
		t.Errorf("headerless = %+v", got)
	}
}

func TestSaveCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	in := []Statement{{Text: "A, with comma", Source: "s1"}, {Text: "B \"quoted\"", Source: "s2"}}
	if err := SaveCSV(path, in); err != nil {
		t.Fatal(err)
	}
	out, err := LoadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip = %+v", out)
	}
}

func TestLoadCSV_Missing(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("Expected error for missing file")
	}
}
