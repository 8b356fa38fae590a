// Package webhook runs the HTTP endpoint that receives Emby server
// notifications and forwards them to Telegram. Library additions are
// coalesced per item for a short window because Emby fires several
// library.new events while it is still enriching metadata.
package webhook
