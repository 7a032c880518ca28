package models

// PendingIntent represents an admin intent awaiting a free-text argument
type PendingIntent int

const (
	// NoPendingIntent is the default state
	NoPendingIntent PendingIntent = iota
	// AwaitingRemoveKeyID is the state when the admin is inputting a key id to remove
	AwaitingRemoveKeyID
	// AwaitingKeyInfoID is the state when the admin is inputting a key id to inspect
	AwaitingKeyInfoID
)
