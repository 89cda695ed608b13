package usecase

import (
	"github.com/kvn3toj/beforenostr-sub004/domain/model"
)

const (
	ReasonNoPriorValue      = "no_prior_value"
	ReasonKnownOverride     = "known_override"
	ReasonWithinTolerance   = "within_tolerance"
	ReasonProtected         = "protected"
	ReasonFallbackUpgrade   = "fallback_upgrade"
	ReasonRelativeChange    = "relative_change"
	ReasonAccepted          = "accepted"
	DefaultToleranceSeconds = 10
	DefaultMaxRelative      = 0.5
)

type ProtectionConfig struct {
	ToleranceSeconds  int
	MaxRelativeChange float64
	// FallbackValues are the generic constants a heuristic can store.
	FallbackValues []int
	ProtectedIDs   []string
}

type ProtectionDecision struct {
	Apply  bool   `json:"apply"`
	Reason string `json:"reason"`
}

// IProtectionPolicy decides whether a recalculated duration may overwrite the
// stored one.
type IProtectionPolicy interface {
	ShouldApply(id string, oldSeconds, newSeconds int, newTier, oldTier model.ConfidenceTier, isProtected func(string) bool) ProtectionDecision
	IsProtected(id string) bool
}

type ProtectionPolicy struct {
	tolerance   int
	maxRelative float64
	fallbacks   map[int]struct{}
	protected   map[string]struct{}
}

func NewProtectionPolicy(cfg ProtectionConfig) IProtectionPolicy {
	p := &ProtectionPolicy{
		tolerance:   cfg.ToleranceSeconds,
		maxRelative: cfg.MaxRelativeChange,
		fallbacks:   make(map[int]struct{}, len(cfg.FallbackValues)),
		protected:   make(map[string]struct{}, len(cfg.ProtectedIDs)),
	}
	if p.tolerance < 0 {
		p.tolerance = DefaultToleranceSeconds
	}
	if p.maxRelative <= 0 {
		p.maxRelative = DefaultMaxRelative
	}
	for _, v := range cfg.FallbackValues {
		p.fallbacks[v] = struct{}{}
	}
	for _, id := range cfg.ProtectedIDs {
		if id != "" {
			p.protected[id] = struct{}{}
		}
	}
	return p
}

func (p *ProtectionPolicy) IsProtected(id string) bool {
	_, ok := p.protected[id]
	return ok
}

// ShouldApply evaluates the rules in order and stops at the first that
// decides. A nil isProtected uses the configured protected set.
func (p *ProtectionPolicy) ShouldApply(
	id string,
	oldSeconds, newSeconds int,
	newTier, oldTier model.ConfidenceTier,
	isProtected func(string) bool,
) ProtectionDecision {
	if isProtected == nil {
		isProtected = p.IsProtected
	}

	if oldSeconds <= 0 {
		return ProtectionDecision{Apply: true, Reason: ReasonNoPriorValue}
	}
	if newTier == model.TierKnownOverride {
		return ProtectionDecision{Apply: true, Reason: ReasonKnownOverride}
	}

	delta := abs(oldSeconds - newSeconds)
	if isProtected(id) {
		if delta <= p.tolerance {
			return ProtectionDecision{Apply: true, Reason: ReasonWithinTolerance}
		}
		return ProtectionDecision{Apply: false, Reason: ReasonProtected}
	}

	if !oldTier.Valid() {
		oldTier = model.TierCategoryHeuristic
	}
	if _, generic := p.fallbacks[oldSeconds]; generic && newTier.HigherThan(oldTier) {
		return ProtectionDecision{Apply: true, Reason: ReasonFallbackUpgrade}
	}

	if float64(delta)/float64(max(oldSeconds, 1)) > p.maxRelative {
		return ProtectionDecision{Apply: false, Reason: ReasonRelativeChange}
	}
	return ProtectionDecision{Apply: true, Reason: ReasonAccepted}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
