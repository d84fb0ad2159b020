package run

import (
	"encoding/json"
	"time"

	"gofacto/domain/core"
)

// Manifest records what produced a fit: its identity, inputs and the code
// version. Two manifests with the same fingerprint describe reproducible fits.
type Manifest struct {
	RunID       core.RunID  `json:"run_id" yaml:"run_id"`
	Variant     string      `json:"variant" yaml:"variant"`
	TableHash   core.Hash   `json:"table_hash" yaml:"table_hash"`
	ConfigHash  core.Hash   `json:"config_hash" yaml:"config_hash"`
	Components  int         `json:"components" yaml:"components"`
	CodeVersion string      `json:"code_version" yaml:"code_version"`
	Fingerprint Fingerprint `json:"fingerprint" yaml:"fingerprint"`
	CreatedAt   time.Time   `json:"created_at" yaml:"created_at"`
}

// NewManifest builds the manifest of a fit. config is hashed through its
// JSON encoding.
func NewManifest(runID core.RunID, variant string, tableHash core.Hash, config interface{}, components int, codeVersion string) (*Manifest, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, core.NewConfigurationError("manifest: config cannot be encoded: %v", err)
	}
	configHash := core.NewHash(raw)

	m := &Manifest{
		RunID:       runID,
		Variant:     variant,
		TableHash:   tableHash,
		ConfigHash:  configHash,
		Components:  components,
		CodeVersion: codeVersion,
		Fingerprint: NewFingerprint(variant, tableHash, configHash, codeVersion),
		CreatedAt:   time.Now().UTC(),
	}
	return m, m.Validate()
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewConfigurationError("manifest: run_id cannot be empty")
	}
	if m.Variant == "" {
		return core.NewConfigurationError("manifest: variant cannot be empty")
	}
	if m.TableHash.IsEmpty() {
		return core.NewConfigurationError("manifest: table_hash cannot be empty")
	}
	if m.CodeVersion == "" {
		return core.NewConfigurationError("manifest: code_version cannot be empty")
	}
	return nil
}
