package constants

const (
	// Credential naming constants
	KeyNameSeparator = "_"
	FallbackUsername = "User"

	// Traffic constants
	BytesInGiB = 1024 * 1024 * 1024

	// Network constants
	DefaultTimeout          = 30
	DefaultRetryCount       = 3
	DefaultRetryWaitTime    = 5
	DefaultRetryMaxWaitTime = 20

	// Pending intent constants
	PendingIntentTTL             = 2 // minutes
	PendingIntentCleanupInterval = 1 // minutes

	// QR code constants
	QRCodeSize = 256 // pixels per side
)
