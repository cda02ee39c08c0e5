// Package secrets seals third-party credentials, such as Twitch refresh
// tokens, before they are written to the user store. It uses
// XChaCha20-Poly1305 with a per-subject key derived by HKDF.
package secrets
