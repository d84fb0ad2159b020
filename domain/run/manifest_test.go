package run

import (
	"testing"

	"gofacto/domain/core"
)

func TestFingerprint_Deterministic(t *testing.T) {
	// same inputs produce identical fingerprints
	fp1 := NewFingerprint("PCA", core.Hash("table"), core.Hash("config"), "1.0.0")
	fp2 := NewFingerprint("PCA", core.Hash("table"), core.Hash("config"), "1.0.0")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.Variant != "PCA" || fp1.TableHash != "table" || fp1.ConfigHash != "config" || fp1.CodeVersion != "1.0.0" {
		t.Errorf("Fingerprint does not carry its inputs: %+v", fp1)
	}
}

func TestFingerprint_Unique(t *testing.T) {
	base := NewFingerprint("PCA", core.Hash("table"), core.Hash("config"), "1.0.0")

	testCases := []struct {
		name string
		fp   Fingerprint
	}{
		{"different variant", NewFingerprint("CA", core.Hash("table"), core.Hash("config"), "1.0.0")},
		{"different table", NewFingerprint("PCA", core.Hash("other"), core.Hash("config"), "1.0.0")},
		{"different config", NewFingerprint("PCA", core.Hash("table"), core.Hash("other"), "1.0.0")},
		{"different code", NewFingerprint("PCA", core.Hash("table"), core.Hash("config"), "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should be different for %s", tc.name)
			}
		})
	}
}

func TestManifest_Complete(t *testing.T) {
	type options struct {
		Components int   `json:"components"`
		RowSup     []int `json:"row_sup"`
	}
	runID := core.NewRunID()

	m1, err := NewManifest(runID, "PCA", core.Hash("table"), options{Components: 2, RowSup: []int{9}}, 2, "1.0.0")
	if err != nil {
		t.Fatalf("Manifest validation failed: %v", err)
	}
	if m1.RunID != runID || m1.Components != 2 {
		t.Errorf("Manifest fields not set correctly: %+v", m1)
	}
	if m1.Fingerprint.Fingerprint.IsEmpty() || m1.ConfigHash.IsEmpty() {
		t.Errorf("Fingerprint not computed")
	}
	if m1.CreatedAt.IsZero() {
		t.Errorf("CreatedAt not set")
	}

	// another run of the same fit replays to the same fingerprint
	m2, err := NewManifest(core.NewRunID(), "PCA", core.Hash("table"), options{Components: 2, RowSup: []int{9}}, 2, "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if m1.Fingerprint.Fingerprint != m2.Fingerprint.Fingerprint {
		t.Errorf("replayed fit has a different fingerprint")
	}

	m3, _ := NewManifest(core.NewRunID(), "PCA", core.Hash("table"), options{Components: 3}, 3, "1.0.0")
	if m3.ConfigHash == m1.ConfigHash {
		t.Errorf("config change not reflected in the hash")
	}
}

func TestManifest_Validate(t *testing.T) {
	_, err := NewManifest("", "PCA", core.Hash("table"), nil, 1, "1.0.0")
	if !core.IsConfigurationError(err) {
		t.Errorf("empty run id: got %v", err)
	}
	_, err = NewManifest(core.NewRunID(), "PCA", core.Hash("table"), nil, 1, "")
	if !core.IsConfigurationError(err) {
		t.Errorf("empty code version: got %v", err)
	}
	_, err = NewManifest(core.NewRunID(), "PCA", core.Hash("table"), func() {}, 1, "1.0.0")
	if !core.IsConfigurationError(err) {
		t.Errorf("unencodable config: got %v", err)
	}
}
