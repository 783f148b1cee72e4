// Package server provides HTTP routing, middleware, and handlers for the token exchange proxy
// and the terminal login callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] is applied in declaration order: the first middleware added is the outermost.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Token Exchange Proxy
//
// [TokenProxyHandler] keeps the client secret off the client. It accepts
// POST /api/getTokens {"code"} and POST /api/refreshToken {"refreshToken"},
// forwards them to the provider through a [TokenGranter], and relays the
// provider's JSON. Provider rejections are returned as 400 {"error": <provider body>}.
//
// [NewProxyServer] assembles the router with [Recover], [RequestID], [Logging],
// [CORS] and [RateLimit], plus GET /health.
//
// # OAuth Callback Handler
//
// [CallbackHandler] receives the authorization-code redirect during `login`.
// It validates the state parameter (CSRF protection), hands the redirect location
// to the session intake, and reports the outcome through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
