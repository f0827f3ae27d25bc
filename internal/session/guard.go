package session

import (
	"context"
	"time"
)

// DefaultGuardTimeout bounds how long a guard waits for session restoration.
const DefaultGuardTimeout = 5 * time.Second

// LandingRoute is where anonymous users are sent.
const LandingRoute = "/"

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Guard admits only signed-in users.
type Guard struct {
	coord   *Coordinator
	timeout time.Duration
}

func NewGuard(c *Coordinator, timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultGuardTimeout
	}
	return &Guard{coord: c, timeout: timeout}
}

// Check waits while the session is loading, up to the guard timeout or ctx, then decides on the
// session as it is at that moment.
func (g *Guard) Check(ctx context.Context) Decision {
	if g.coord.Current().Loading {
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()

		select {
		case <-g.coord.Ready():
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	if !g.coord.Current().Authenticated {
		return Decision{Redirect: LandingRoute}
	}
	return Decision{Allowed: true}
}

// Access adapts [Guard.Check] to the router's access check signature.
func (g *Guard) Access(ctx context.Context) (bool, string) {
	d := g.Check(ctx)
	return d.Allowed, d.Redirect
}
