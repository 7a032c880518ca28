package helpers

import (
	"fmt"

	"outline-tg-bot/internal/constants"
)

// CredentialKey derives the access key name for a Telegram identity.
// The name is the sole join between a chat user and its remote key,
// so the format must stay stable: "<username>_<userId>".
func CredentialKey(username string, userID int64) string {
	if username == "" {
		username = constants.FallbackUsername
	}
	return fmt.Sprintf("%s%s%d", username, constants.KeyNameSeparator, userID)
}
