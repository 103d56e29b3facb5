// Package monitor implements the terminal dashboard for the sensor fleet.
//
// The dashboard is a thin Bubble Tea front end over a dashboard session: it
// subscribes to published views and turns keystrokes into session actions.
// It never fetches data or keeps a series of its own.
//
// # Architecture
//
//   - Model: presentation state only (focus, hover cursor, edit cursor, layout)
//   - Update: applies views from the subscription and key presses
//   - View: renders the latest view to a string
//
// # Message Flow
//
//  1. waitForView blocks on the session subscription
//  2. viewMsg arrives, replacing Model.view, and the wait is re-armed
//  3. Actions that call the API run as commands and report an actionMsg
//  4. View() re-renders with the new state
//
// # Hover
//
// Tab moves focus between the real-time, model, zone and overview charts.
// Left and right move the cursor on the focused chart; the index is sent to
// the session, which clamps it onto every other chart. Non-focused charts
// draw the index held by the session's hover markers.
//
// # Layout
//
//	< 80 cols   - model panel hidden, single column of zone cards
//	80-140      - zone cards two or three per row
//	140+        - wide zone cards
//
// Below 24 rows the key help footer is hidden.
package monitor
