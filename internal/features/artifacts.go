package features

import (
	"encoding/json"
	"math"
	"os"

	"triguard/pkg/errors"
)

// Artifacts holds the statistics computed from the training partition that
// Transform needs to reproduce imputation and capping on unseen rows.
// Values may be NaN when the source column had no parseable cells.
type Artifacts map[string]float64

// Get returns one artifact value, failing when the key was never fitted.
func (a Artifacts) Get(key string) (float64, error) {
	v, ok := a[key]
	if !ok {
		return 0, errors.Wrapf(errors.ErrArtifactMissing, "artifact %q", key)
	}
	return v, nil
}

// Save writes the artifacts as JSON. NaN values are stored as null since
// JSON has no NaN literal.
func (a Artifacts) Save(path string) error {
	out := make(map[string]*float64, len(a))
	for k, v := range a {
		if math.IsNaN(v) {
			out[k] = nil
			continue
		}
		val := v
		out[k] = &val
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal artifacts")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write artifacts")
	}
	return nil
}

// LoadArtifacts reads artifacts saved by Save, mapping null back to NaN.
func LoadArtifacts(path string) (Artifacts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactMissing, "read artifacts %s: %v", path, err)
	}

	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshal artifacts")
	}

	a := make(Artifacts, len(raw))
	for k, v := range raw {
		if v == nil {
			a[k] = math.NaN()
			continue
		}
		a[k] = *v
	}
	return a, nil
}
