package featureflags

import (
	"os"
	"strings"
)

// Enabled reports whether a flag was switched on through the
// environment. A flag named "email_login" is read from FLAG_EMAIL_LOGIN
// and accepts 1/true/yes/on, case-insensitive. Absent flags are off.
func Enabled(name string) bool {
	switch strings.ToLower(os.Getenv("FLAG_" + strings.ToUpper(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
