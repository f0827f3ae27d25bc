// Package identity is the identity provider adapter.
//
// A [Provider] signs users up and in (email/password or federated Google sign-in), signs them out,
// and publishes every change of the signed-in identity on a cancellable [Subscription].
// A nil *[Identity] on the stream means nobody is signed in.
//
// [LocalProvider] keeps credentials in the accounts table (bcrypt hashes) and persists the
// session between runs in a small JSON file carrying a signed JWT. On the first Subscribe the
// file is read and, when its token still verifies, the restored identity becomes the first event.
//
// Failures are reported as *[Error] values whose Code uses the "auth/..." vocabulary
// (for example [CodeEmailInUse] or [CodePopupClosed]).
package identity
