package models

import "time"

// Collections used in the state store.
const (
	CollectionPlayers  = "players"
	CollectionMessages = "discord_messages"
	CollectionBackups  = "backups"
)

// RosterSnapshot is the last successfully persisted roster of a server.
// Time is when it was persisted, i.e. when the roster last changed.
type RosterSnapshot struct {
	Game    string    `json:"game"`
	Players []string  `json:"players"`
	Time    time.Time `json:"time"`
}

// StatusMessageRecord names the single active status message of a server.
type StatusMessageRecord struct {
	Game      string `json:"game"`
	MessageID string `json:"discord_message_id"`
}

// BackupRecord tracks only the most recent archive of a server.
type BackupRecord struct {
	Game     string    `json:"game"`
	Filename string    `json:"filename"`
	Time     time.Time `json:"time"`
}
