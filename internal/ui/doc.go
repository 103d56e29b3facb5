// Package ui provides terminal output helpers for ziris commands.
//
// # Components
//
//	Spinner  - animated status line around a blocking API call
//	Tables   - threshold and job listings built on bubbles/table
//	Styles   - semantic colors shared by every command
//
// Colors are ANSI codes for broad terminal compatibility. DisableColors
// switches to plain text (used with --json and when output is not a TTY).
package ui
