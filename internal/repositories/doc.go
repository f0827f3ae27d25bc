// Package repositories implements persistence for profiles, watch list items and local accounts.
//
// Two backends are provided:
//   - SQL ([ProfileRepository], [ListRepository], [AccountRepository]) over SQLite or PostgreSQL.
//     Queries are written with "?" placeholders and rebound per driver with [shared.Rebind].
//   - Firestore ([FirestoreProfileRepository], [FirestoreListRepository]) using the "users" and
//     "mylist" collections with store-assigned timestamps.
//
// Profiles are created at most once: [ProfileRepository.Ensure] inserts when absent and otherwise
// only touches updated_at. Watch list items are keyed by user id and IMDb id; a second insert
// of the same pair fails with [shared.ErrDuplicateItem].
package repositories
