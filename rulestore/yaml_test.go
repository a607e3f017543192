package rulestore

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/lvkbot/nlptree/nlp"
)

const testPack = `
rules:
  - id: 1
    inputs:
      - "hello [name]"
    outputs:
      - if: "name == ada"
        template: "hi ada"
      - template: "hi stranger"
  - id: 2
    inputs:
      - "bye"
    outputs:
      - template: "goodbye"
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeTemp(t, testPack)

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %s", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}

	tree := nlp.NewTree()
	for _, r := range rules {
		tree.Add(r)
	}

	got, _, ok := tree.GetResponse("hello ada")
	if !ok || got != "hi ada" {
		t.Errorf("got (%q, %v), want (%q, true)", got, ok, "hi ada")
	}

	got, _, ok = tree.GetResponse("bye")
	if !ok || got != "goodbye" {
		t.Errorf("got (%q, %v), want (%q, true)", got, ok, "goodbye")
	}
}

func TestLoadYAMLMalformedReturnsTypedError(t *testing.T) {
	path := writeTemp(t, "not: [valid")

	_, err := LoadYAML(path)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*LoadError); !ok {
		t.Errorf("got error of type %T, want *LoadError", err)
	}
}

func TestLoadYAMLMissingFile(t *testing.T) {
	_, err := LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*LoadError); !ok {
		t.Errorf("got error of type %T, want *LoadError", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pack, err := LoadYAML(writeTemp(t, testPack))
	if err != nil {
		t.Fatalf("LoadYAML: %s", err)
	}

	snap := NewSnapshot(filepath.Join(dir, "snap.db"))
	if err := snap.Open(); err != nil {
		t.Fatalf("Open: %s", err)
	}
	defer snap.Close()

	if err := snap.Write("pack.yaml", pack); err != nil {
		t.Fatalf("Write: %s", err)
	}

	got, ok, err := snap.Read("pack.yaml")
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if !ok {
		t.Fatalf("expected a snapshot to be found")
	}
	if len(got.Rules) != len(pack.Rules) {
		t.Errorf("got %d rules, want %d", len(got.Rules), len(pack.Rules))
	}

	if _, ok, err := snap.Read("missing-key"); err != nil || ok {
		t.Errorf("got (ok=%v, err=%v), want (false, nil) for a missing key", ok, err)
	}
}
