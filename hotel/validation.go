package hotel

// Shape rules applied before anything is written. Table-backed rules
// (room availability, admin password, profile existence) live on Engine
// and Accounts because they read tables.

const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPhoneLen    = 10
	maxPhoneLen    = 15
	minAdminPwLen  = 6
)

// IsValidUsername: 3-20 ASCII characters, a letter first, then letters,
// digits or underscores.
func IsValidUsername(s string) bool {
	if len(s) < minUsernameLen || len(s) > maxUsernameLen {
		return false
	}
	if !isLetter(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return false
		}
	}
	return true
}

// IsValidPhone: 10-15 digits, nothing else.
func IsValidPhone(s string) bool {
	if len(s) < minPhoneLen || len(s) > maxPhoneLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
