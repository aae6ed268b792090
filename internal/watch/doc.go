// Package watch implements the terminal UI behind moded-watch.
//
// It subscribes to a collector's websocket feed and renders decoded
// telegrams live in a scrollable viewport. When no feed URL is given it
// browses the local network for an announced collector first.
//
// Built with Bubble Tea (Elm-style model/update/view), bubbles for the
// spinner and viewport, and lipgloss for styling.
package watch
