package premium

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Features are the limits and toggles granted by a tier.
type Features struct {
	MaxStreamsPerPack int  `yaml:"max_streams_per_pack" json:"max_streams_per_pack"`
	MaxPacks          int  `yaml:"max_packs" json:"max_packs"`
	VODSync           bool `yaml:"vod_sync" json:"vod_sync"`
	PrivatePacks      bool `yaml:"private_packs" json:"private_packs"`
	AdaptiveQuality   bool `yaml:"adaptive_quality" json:"adaptive_quality"`
}

// Tiers maps the premium flag to its feature set.
type Tiers struct {
	Free    Features `yaml:"free"`
	Premium Features `yaml:"premium"`
}

//go:embed tiers.yaml
var defaultTiers []byte

// DefaultTiers returns the tiers shipped with the binary.
func DefaultTiers() Tiers {
	t, err := ParseTiers(defaultTiers)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTiers decodes and sanity checks a tiers document. Unknown keys are
// rejected so a typo cannot silently zero a limit.
func ParseTiers(data []byte) (Tiers, error) {
	var t Tiers
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Tiers{}, fmt.Errorf("%w: %v", ErrInvalidTiers, err)
	}
	for name, f := range map[string]Features{"free": t.Free, "premium": t.Premium} {
		if f.MaxPacks <= 0 || f.MaxStreamsPerPack <= 0 {
			return Tiers{}, fmt.Errorf("%w: %s limits must be positive", ErrInvalidTiers, name)
		}
	}
	if t.Premium.MaxPacks < t.Free.MaxPacks || t.Premium.MaxStreamsPerPack < t.Free.MaxStreamsPerPack {
		return Tiers{}, fmt.Errorf("%w: premium limits below free limits", ErrInvalidTiers)
	}
	return t, nil
}

func (t Tiers) For(premium bool) Features {
	if premium {
		return t.Premium
	}
	return t.Free
}
