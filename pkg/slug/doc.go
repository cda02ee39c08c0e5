// Package slug builds URL-safe identifiers from free text. Share links for
// packs use Make with a random suffix so renamed or duplicate titles never
// collide.
package slug
