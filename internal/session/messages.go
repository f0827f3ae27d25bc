package session

import "github.com/desertthunder/freemovies/internal/identity"

const (
	msgFieldsRequired = "All fields are required"
	msgPasswordLength = "Password must be at least %d characters"

	msgRegisterFailed = "Error registering user"
	msgLoginFailed    = "Error signing in"
	msgGoogleFailed   = "Error signing in with Google"
	msgLogoutFailed   = "Error signing out"
	msgNotReady       = "Authentication is not available"
)

var registerMessages = map[string]string{
	identity.CodeEmailInUse:   "This email is already registered",
	identity.CodeInvalidEmail: "Invalid email",
	identity.CodeWeakPassword: "Password is too weak",
}

var loginMessages = map[string]string{
	identity.CodeUserNotFound:      "User not found",
	identity.CodeWrongPassword:     "Incorrect password",
	identity.CodeInvalidEmail:      "Invalid email",
	identity.CodeInvalidCredential: "Invalid credentials",
}

var googleMessages = map[string]string{
	identity.CodePopupClosed:    "Authentication window closed",
	identity.CodePopupCancelled: "Request cancelled",
}

// translate picks the message for err's provider code, or fallback.
func translate(err error, messages map[string]string, fallback string) string {
	if msg, ok := messages[identity.Code(err)]; ok {
		return msg
	}
	return fallback
}
