// Package packs exposes pack CRUD, stream management and share QR codes
// under /api/packs. Reads accept anonymous visitors; mutations require a
// session.
package packs
