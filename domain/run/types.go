package run

import (
	"fmt"

	"gofacto/domain/core"
)

// Fingerprint identifies a fit for replay: the same variant, table,
// configuration and code version always give the same fingerprint
type Fingerprint struct {
	Variant     string    `json:"variant" yaml:"variant"`
	TableHash   core.Hash `json:"table_hash" yaml:"table_hash"`
	ConfigHash  core.Hash `json:"config_hash" yaml:"config_hash"`
	CodeVersion string    `json:"code_version" yaml:"code_version"`
	Fingerprint core.Hash `json:"fingerprint" yaml:"fingerprint"` // hash of all above
}

// NewFingerprint creates a fingerprint from the determinism parameters
func NewFingerprint(variant string, tableHash, configHash core.Hash, codeVersion string) Fingerprint {
	return Fingerprint{
		Variant:     variant,
		TableHash:   tableHash,
		ConfigHash:  configHash,
		CodeVersion: codeVersion,
		Fingerprint: computeFingerprint(variant, tableHash, configHash, codeVersion),
	}
}

func computeFingerprint(variant string, tableHash, configHash core.Hash, codeVersion string) core.Hash {
	data := fmt.Sprintf("variant:%s|table:%s|config:%s|code:%s", variant, tableHash, configHash, codeVersion)
	return core.NewHash([]byte(data))
}
