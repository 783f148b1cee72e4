// Package services implements the HTTP clients on both sides of the token exchange.
//
// # Token Endpoint
//
// [TokenEndpoint] runs on the proxy. It posts form-encoded authorization_code and refresh_token grants to the
// Spotify accounts token endpoint, authenticated with Basic auth of the client ID and secret, and hands back the
// provider's body as a [json.RawMessage] so the proxy can relay it without interpretation.
//
// # Proxy Client
//
// [ProxyClient] runs on the client. It calls the proxy's /api/getTokens and /api/refreshToken routes and decodes
// the result into a [TokenResponse]. A 400 from the proxy becomes a [shared.UpstreamAuthError] carrying the
// provider's error payload; transport failures and 5xx become a [shared.NetworkError].
//
// # Spotify Web API
//
// [SpotifyService] reads the profile, playlists, and playback state. It sends requests through a [Doer], which in
// practice is the session client that adds the bearer credential and runs the refresh protocol on 401.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.UpstreamAuthError] : provider rejected the code or refresh token
//   - [shared.NetworkError] : the provider or proxy could not be reached
//   - [shared.ConfigurationError] : [NewTokenEndpoint] was given incomplete credentials
//   - [APIError] : non-2xx Web API response, matching [shared.ErrTokenExpired] for 401s
package services
