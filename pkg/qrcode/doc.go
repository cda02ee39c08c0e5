// Package qrcode renders PNG QR codes for pack share links with
// skip2/go-qrcode.
package qrcode
