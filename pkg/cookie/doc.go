// Package cookie stores small values in authenticated, encrypted cookies
// using gorilla/securecookie. It carries the login session and the OAuth
// state between the redirect and the callback.
package cookie
