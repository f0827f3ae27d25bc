// Package services talks to the OMDb movie database.
//
// # Raw access
//
// [APIService] performs GET requests against the API with the key attached and returns the
// undecoded response. The CLI uses it for `api get` when debugging queries.
//
// # Catalog
//
// [OMDbService] implements [Catalog] on top of [APIService]:
//   - Search: GET /?s=..&page=..&type=movie
//   - Movie: GET /?i=..&plot=full (cached in an LRU via gcache)
//   - Series: GET /?s=series&type=series&page=1
//
// OMDb answers every request with HTTP 200 and reports failures in the body
// (`"Response": "False"` plus `"Error"`), so the status code alone is never trusted.
//
// # Error Handling
//
// Failures are returned as [*Error], which carries a message fit for display and unwraps to a
// sentinel from the shared package:
//   - [shared.ErrNoResults] : the search matched nothing
//   - [shared.ErrMovieNotFound] : unknown IMDb id
//   - [shared.ErrAPIRequest] : the request or decoding failed
package services
