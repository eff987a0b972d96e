// Package ui implements an interactive terminal song browser using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [SongListView] : Browse songs, newest first, with "/" to search by title
//  2. [DetailView] : Show one song's URL and the in-game "/streammusic" command
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Songs are fetched through a [services.Client]; "r" refetches them and "c" copies the selected URL to the system
// clipboard.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
