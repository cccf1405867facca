package backtest

// Strategy is anything that reacts to a bar. OnBar is called exactly once
// per step; its only effect on the simulation is the orders it submits
// through ctx.
type Strategy interface {
	OnBar(ctx Context)
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(ctx Context)

func (f StrategyFunc) OnBar(ctx Context) { f(ctx) }

// Named is implemented by strategies that report a display name.
type Named interface {
	Name() string
}

// Resetter is implemented by strategies holding state that must be
// cleared before a replay.
type Resetter interface {
	Reset()
}

// StrategyName returns s's name, or fallback when s is not Named.
func StrategyName(s Strategy, fallback string) string {
	if n, ok := s.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return fallback
}
