// Package logtail reads the tail of Lectern's log file for the in-app log
// view.
//
// # Reading
//
// Read keeps a ring buffer of maxLines while scanning the file once, so memory
// stays O(maxLines) regardless of file size:
//
//	lines, err := logtail.Read(cfg.Log.File, 400)
//
// # Parsing
//
// Parse understands the JSON lines written by the production encoder
// (ts, level, logger, msg, plus arbitrary fields). Lines in any other shape,
// including development console output, are returned with Parsed=false and
// only Raw set, so nothing in the file is hidden from the viewer.
//
// Filter drops parsed entries below a level. Unparsed lines have no reliable
// level and are always kept.
//
// Styling is left to the caller; the UI applies its theme to each Entry.
package logtail
