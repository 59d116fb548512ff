// Package tube implements the backend for a small video sharing platform.
//
// The package centers on the authentication and session lifecycle: bcrypt
// credential hashing, a two-class JWT token service (short lived access
// tokens, longer lived refresh tokens signed with a separate secret), and a
// single-slot refresh token store that rotates the stored value on every
// successful refresh. Everything is composed by the Auther, which exposes
// Login, Refresh, Logout and ChangePassword.
//
// Persistence is handled with bun repositories, HTTP transport with go-router
// on top of fiber, and errors with go-errors rich errors that the HTTP
// controller renders as a uniform JSON envelope.
package tube
