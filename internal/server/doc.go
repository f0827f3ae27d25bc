// Package server provides HTTP routing, middleware, and OAuth handling for the CLI and web front ends.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns internally.
//
// # Middleware
//
//   - [RequireAuth] redirects requests whose [AccessCheck] fails. The web front end wires it to the
//     session route guard for the watch list.
//   - [Logging] and [Recover] provide request logs and panic recovery.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback used by federated sign-in.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel. A declined consent screen is reported as [ErrAuthorizationDenied].
//
// It only processes one callback to prevent replay attacks. During Google sign-in a temporary server listens
// on the configured redirect address, handles the callback, and shuts down once the token arrives.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
