// Package ui holds the color themes shared by the CLI output and the
// dashboard. Themes are process-wide and chosen once at start-up.
package ui
