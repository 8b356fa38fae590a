// Package notify delivers Telegram messages for daemon lifecycle events
// and for Emby webhook events forwarded by the webhook server. Admin
// chats receive everything; user chats only see library additions and
// removals.
package notify
