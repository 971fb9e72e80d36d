// Package glossary turns raw dictionary entries into the HTML the popup
// renders and the payloads forwarded back to mpv.
//
// Everything here is a pure transformation over parsed HTML fragments
// (goquery over golang.org/x/net/html) and can be tested without a display.
package glossary
