// package session owns the client-side Spotify session.
//
// Tokens live in a [Store] (memory, SQLite or Redis). [State] mirrors the current
// access token for views. [Client] attaches the token to Web API requests and,
// on a 401, asks the [RefreshCoordinator] for a new one. The coordinator runs a
// single refresh at a time and fans its result out to every queued caller; when
// the refresh fails the session is logged out.
//
// [Intake] decides the starting view: it redeems a code from the OAuth redirect
// or resumes from a stored access token.
package session
