// -- pkg/humantype/profile.go --
package humantype

// TimingProfile is an immutable named set of scalars feeding the delay model.
// BaseSpeedFactor and IdlePauseProb ride along for profile completeness; the
// chunk delay model does not consume them.
type TimingProfile struct {
	Name            string
	BaseSpeedFactor float64
	MicroStutterProb float64
	IdlePauseProb   float64
	BurstProb       float64
	BurstMin        int
	BurstMax        int
	GammaShape      float64
	GammaScale      float64
	NoiseLevel      float64
}

// HumanAdvanced is the default balanced profile.
func HumanAdvanced() TimingProfile {
	return TimingProfile{
		Name:             "human-advanced",
		BaseSpeedFactor:  1.0,
		MicroStutterProb: 0.1,
		IdlePauseProb:    0.009,
		BurstProb:        0.14,
		BurstMin:         2,
		BurstMax:         6,
		GammaShape:       2.0,
		GammaScale:       1.0,
		NoiseLevel:       0.15,
	}
}

// FastHuman types quickly with longer bursts and less jitter.
func FastHuman() TimingProfile {
	return TimingProfile{
		Name:             "fast-human",
		BaseSpeedFactor:  0.7,
		MicroStutterProb: 0.06,
		IdlePauseProb:    0.004,
		BurstProb:        0.2,
		BurstMin:         3,
		BurstMax:         8,
		GammaShape:       1.8,
		GammaScale:       0.9,
		NoiseLevel:       0.12,
	}
}

// SlowTired stutters often and rarely bursts.
func SlowTired() TimingProfile {
	return TimingProfile{
		Name:             "slow-tired",
		BaseSpeedFactor:  1.5,
		MicroStutterProb: 0.15,
		IdlePauseProb:    0.025,
		BurstProb:        0.08,
		BurstMin:         2,
		BurstMax:         4,
		GammaShape:       2.5,
		GammaScale:       1.3,
		NoiseLevel:       0.22,
	}
}

// Professional is the steadiest and fastest preset.
func Professional() TimingProfile {
	return TimingProfile{
		Name:             "professional",
		BaseSpeedFactor:  0.75,
		MicroStutterProb: 0.04,
		IdlePauseProb:    0.003,
		BurstProb:        0.25,
		BurstMin:         4,
		BurstMax:         10,
		GammaShape:       1.6,
		GammaScale:       0.85,
		NoiseLevel:       0.08,
	}
}

// ProfileByName resolves a preset name from configuration. Unknown names fall
// back to HumanAdvanced.
func ProfileByName(name string) TimingProfile {
	switch name {
	case "fast-human", "fast":
		return FastHuman()
	case "slow-tired", "slow":
		return SlowTired()
	case "professional":
		return Professional()
	default:
		return HumanAdvanced()
	}
}

// DelayRange is the floor/ceiling the profile's gamma draw is rescaled into.
type DelayRange struct {
	MinMs int
	MaxMs int
}

// Normalized returns the range with the bounds swapped into order.
func (d DelayRange) Normalized() DelayRange {
	if d.MinMs > d.MaxMs {
		return DelayRange{MinMs: d.MaxMs, MaxMs: d.MinMs}
	}
	return d
}

// ImperfectionSettings tunes the typo/double-key/self-correction machinery.
// Interval bounds are expressed in characters between events.
type ImperfectionSettings struct {
	EnableTypos bool
	TypoMin     int
	TypoMax     int

	EnableDoubleKeys bool
	DoubleMin        int
	DoubleMax        int

	EnableAutoCorrection  bool
	CorrectionProbability int // percent, 0-100
}

// DefaultImperfections mirrors the original defaults: sparse typos and
// double keys, corrections on 15% of typos.
func DefaultImperfections() ImperfectionSettings {
	return ImperfectionSettings{
		EnableTypos:           true,
		TypoMin:               300,
		TypoMax:               500,
		EnableDoubleKeys:      true,
		DoubleMin:             250,
		DoubleMax:             400,
		EnableAutoCorrection:  true,
		CorrectionProbability: 15,
	}
}
