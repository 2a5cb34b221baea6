package engine

import "github.com/warpscheduler/core/config"

// EvictionCurve computes the eviction grace period t and eviction fee a for
// the current queue length q, per piecewise-linear curve:
// cheap and slow to evict when the queue is short, expensive but fast when
// it is congested.
func EvictionCurve(cfg *config.Config, q uint64) (t, a uint64) {
	if q >= cfg.QMax {
		return cfg.TMin, cfg.AMax
	}
	// t = t_max - q * (t_max - t_min) / q_max
	spread := cfg.TMax - cfg.TMin
	t = cfg.TMax - (q*spread)/cfg.QMax
	a = cfg.AMin
	return t, a
}
