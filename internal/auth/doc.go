// Package auth handles client-side credentials: loading the bearer token
// from the environment or the config directory, extracting identity claims
// for request headers, and clearing everything on sign-out.
//
// Tokens are HS256 JWTs minted by the gateway. The client never holds the
// signing secret, so claims are read without signature verification; the
// gateway remains the authority and rejects tampered tokens. Local expiry
// checks exist only to fail fast before a round trip.
package auth
