// Package session coordinates the identity provider, the profile store and the in-memory session.
//
// A [Coordinator] owns the single [models.Session] of the process. It subscribes once to the
// provider's change stream and applies every notification on one goroutine, which is the only
// writer of the session; everyone else reads snapshots ([Coordinator.Current]) or follows changes
// ([Coordinator.Watch]). Register, Login, LoginWithGoogle and Logout only talk to the provider
// and report a [Result]; the session changes when the resulting notification arrives.
//
// A [Guard] protects routes and views that need a signed-in user. While the session is still
// being restored it waits up to a fixed timeout, then redirects anonymous users to "/".
package session
