// Package email sends transactional notices through Postmark. When no
// Postmark token is configured, DevSender logs the message instead.
//
// Bodies are templ components from the templates subpackage, rendered
// with templates.Render.
package email
