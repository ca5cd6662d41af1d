package conflict

// Resolver is the provider contract. CanAutoResolve must be cheap and
// side-effect free; the registry calls it before committing to a
// provider. Resolve is only called after CanAutoResolve returned true,
// except for the terminal manual provider which accepts everything.
type Resolver interface {
	// Name identifies the strategy in resolutions and logs.
	Name() string
	// CanAutoResolve reports whether this provider can settle the
	// conflict without human input.
	CanAutoResolve(c *Conflict) bool
	// Resolve produces the resolution. Implementations must not mutate
	// the conflict.
	Resolve(c *Conflict) (Resolution, error)
}
