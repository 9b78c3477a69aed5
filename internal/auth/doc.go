// Package auth holds the stateless credential primitives: bcrypt password
// hashing, random password-reset tokens, and signed session envelopes (JWT).
package auth
