// Package models defines domain entities and persistence interfaces for the freemovies application.
//
// The package contains two categories of types:
//
// 1. Catalog DTOs: Lightweight structs describing movie database responses
//   - [MovieSummary] : One search hit (title, year, id, type, poster)
//   - [MovieDetail] : Full record for a single title
//   - [SearchPage] : One page of search results, never persisted
//
// 2. Persistent Entities: Records owned by a signed-in user
//   - [Profile] : Profile document keyed by identity id, created at most once
//   - [ListItem] : Watch list entry keyed by user id and IMDb id
//
// [Session] is the in-memory view of the signed-in user. It is owned by the session coordinator and never stored.
//
// [ProfileRepository] and [ListRepository] are implemented for SQL databases and Firestore.
package models
