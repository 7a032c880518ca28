package commands

// TelegramCommands contains all commands for the Telegram bot
const (
	// Slash commands
	Start     = "/start"
	Menu      = "/menu"
	GetKey    = "/getkey"
	AddKey    = "/addkey"
	ListKeys  = "/listkeys"
	RemoveKey = "/removekey"
	KeyInfo   = "/keyinfo"

	// Member buttons
	GetKeyButton       = "🔑 Get VPN Key"
	CheckTrafficButton = "📊 Check Traffic"
	HowToUseButton     = "ℹ️ How to use key"

	// Administrator buttons
	ListKeysButton = "🔑 List All VPN Keys (Admin)"

	// Callback payload prefixes
	RemoveKeyCallbackPrefix = "remove_key_"
)
