package notify

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Emby webhook event names this service understands. Anything else is
// forwarded to admins with a humanized fallback rendering.
const (
	EventLibraryNew           = "library.new"
	EventLibraryDeleted       = "library.deleted"
	EventPlaybackStart        = "playback.start"
	EventPlaybackStop         = "playback.stop"
	EventPlaybackPause        = "playback.pause"
	EventPlaybackUnpause      = "playback.unpause"
	EventMarkPlayed           = "item.markplayed"
	EventMarkUnplayed         = "item.markunplayed"
	EventUpdateAvailable      = "system.updateavailable"
	EventRestartRequired      = "system.serverrestartrequired"
	EventAuthenticated        = "user.authenticated"
	EventAuthenticationFailed = "user.authenticationfailed"
	EventPluginInstalled      = "plugins.plugininstalled"
	EventPluginUninstalled    = "plugins.pluginuninstalled"
)

var eventIcons = map[string]string{
	EventPlaybackStart:        "▶ ",
	EventPlaybackStop:         "⏹ ",
	EventPlaybackPause:        "⏸ ",
	EventPlaybackUnpause:      "⏯ ",
	EventLibraryDeleted:       "🗑 ",
	EventMarkUnplayed:         "❎ ",
	EventMarkPlayed:           "✅ ",
	EventUpdateAvailable:      "💾 ",
	EventAuthenticationFailed: "🔒 ",
	EventAuthenticated:        "🔐 ",
	EventRestartRequired:      "🔄 ",
	EventPluginUninstalled:    "📤 ",
	EventPluginInstalled:      "📥 ",
}

// LibraryEvent is a parsed Emby webhook notification.
type LibraryEvent struct {
	Event         string
	Title         string
	Description   string
	ItemID        string
	ItemName      string
	ItemType      string
	SeriesName    string
	SeasonName    string
	EpisodeNumber int
	ServerVersion string
	NewVersion    string
	InfoURL       string
}

// UserVisible reports whether regular user chats should see this event.
// Users only get library additions and removals.
func (e LibraryEvent) UserVisible() bool {
	return strings.Contains(e.Event, EventLibraryNew) || strings.Contains(e.Event, EventLibraryDeleted)
}

// Icon returns the emoji prefix for the event, or an empty string.
func Icon(event string) string {
	return eventIcons[event]
}

var titleCaser = cases.Title(language.English)

// humanizeEvent turns "system.updateavailable" into "System
// Updateavailable" for events without a dedicated rendering.
func humanizeEvent(event string) string {
	parts := strings.Split(event, ".")
	for i, part := range parts {
		parts[i] = titleCaser.String(part)
	}
	return strings.Join(parts, " ")
}

// Format renders the Telegram message body for an event.
func (e LibraryEvent) Format() string {
	icon := Icon(e.Event)
	switch {
	case strings.Contains(e.Event, EventLibraryNew):
		text := e.Title
		if text == "" {
			text = e.ItemName
		}
		if e.Description != "" {
			text = fmt.Sprintf("%s\n\nDescription: %s", text, e.Description)
		}
		return icon + text
	case strings.Contains(e.Event, EventMarkPlayed), strings.Contains(e.Event, EventMarkUnplayed):
		verb := "played"
		if strings.Contains(e.Event, EventMarkUnplayed) {
			verb = "unplayed"
		}
		if e.ItemType == "Episode" && e.SeriesName != "" {
			return fmt.Sprintf("%sMarked %s: %s %s episode %d - %s",
				icon, verb, e.SeriesName, e.SeasonName, e.EpisodeNumber, e.ItemName)
		}
		return fmt.Sprintf("%sMarked %s: %s", icon, verb, e.ItemName)
	case strings.Contains(e.Event, EventUpdateAvailable):
		text := fmt.Sprintf("%sUpdate from version %s to %s available", icon, e.ServerVersion, e.NewVersion)
		if e.Description != "" {
			text += "\nDescription: " + e.Description
		}
		if e.InfoURL != "" {
			text += "\nMore info: " + e.InfoURL
		}
		return text
	case e.Title != "":
		return icon + e.Title
	default:
		return icon + humanizeEvent(e.Event)
	}
}
