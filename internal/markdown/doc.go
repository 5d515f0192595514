// Package markdown renders article bodies to HTML with goldmark and derives
// the plain-text views (summaries, word counts, reading time) used by lists
// and feeds.
package markdown
