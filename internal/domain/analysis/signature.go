package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

type signaturePayload struct {
	Type       AnalysisType `json:"type"`
	Scope      string       `json:"scope"`
	Options    *Options     `json:"options,omitempty"`
	DataInputs *DataInputs  `json:"dataInputs"`
}

// Signature is a deterministic digest of the request shape. Requests that
// differ only in id, requester or timestamp share a signature.
func Signature(req *Request) (string, error) {
	opts := req.Options
	if opts != nil && opts.Depth == "" && len(opts.FocusAreas) == 0 &&
		len(opts.Subjects) == 0 && opts.ComparisonType == "" {
		opts = nil
	}
	payload, err := json.Marshal(signaturePayload{
		Type:       req.Type,
		Scope:      req.Scope,
		Options:    opts,
		DataInputs: &req.DataInputs,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
