package bake

import "github.com/oriumgames/navgraph/lib/geoprobe"

// Params configures a bake_section run (spec §4.C7).
type Params struct {
	GeometryMask geoprobe.LayerMask
	ObstacleMask geoprobe.LayerMask

	CapsuleHeight   float64
	CapsuleRadius   float64
	GroundClearance float64
	MaxSlope        float64
}

// DefaultParams returns spec §4.C7's fixed default parameter values.
func DefaultParams(geometryMask, obstacleMask geoprobe.LayerMask) Params {
	return Params{
		GeometryMask:    geometryMask,
		ObstacleMask:    obstacleMask,
		CapsuleHeight:   2.0,
		CapsuleRadius:   0.10,
		GroundClearance: 0.05,
		MaxSlope:        0.25,
	}
}

// Option overrides one field of Params away from its default.
type Option func(*Params)

// WithMaxSlope overrides the maximum per-step height delta a capsule
// may still cross.
func WithMaxSlope(maxSlope float64) Option {
	return func(p *Params) { p.MaxSlope = maxSlope }
}

// WithCapsule overrides the standing-room capsule's dimensions.
func WithCapsule(height, radius, groundClearance float64) Option {
	return func(p *Params) {
		p.CapsuleHeight = height
		p.CapsuleRadius = radius
		p.GroundClearance = groundClearance
	}
}

// NewParams builds Params from DefaultParams, applying opts in order.
func NewParams(geometryMask, obstacleMask geoprobe.LayerMask, opts ...Option) Params {
	p := DefaultParams(geometryMask, obstacleMask)
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
