// Package ui provides the styled terminal output shared by the framecast
// commands: command headers, success/failure result boxes, and discovery
// listings. Rendering is plain string composition with lipgloss; there is no
// interactive terminal state, so output can be piped or logged safely.
package ui
