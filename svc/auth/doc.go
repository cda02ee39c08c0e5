// Package auth signs users in with Twitch and keeps them signed in with an
// encrypted session cookie.
//
// Begin redirects to Twitch with a random state stored in a short lived
// cookie. Complete checks that state, exchanges the code, loads the Helix
// profile, upserts the user and stores the Twitch tokens sealed per user.
// RequireUser and OptionalUser resolve the session on later requests and put
// the user into the request context.
package auth
