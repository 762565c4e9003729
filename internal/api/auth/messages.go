package auth

import "time"

const (
	MsgFillAllFields      = "Please fill in all fields."
	MsgUseGmail           = "Please use a valid Gmail address (@gmail.com)"
	MsgBanned             = "This email address has been banned from the platform."
	MsgAlreadyRegistered  = "Email is already registered. Please use a different email."
	MsgRegistrationFailed = "Registration failed. Please try again."
	MsgRegistered         = "Registration successful! Please check your email for the verification code."

	MsgEmailAndCode    = "Please provide both email and verification code."
	MsgCodeFormat      = "Verification code must be 4 digits."
	MsgNoUser          = "No user found with this email."
	MsgInvalidCode     = "Invalid verification code. Please check and try again."
	MsgCodeExpired     = "Invalid verification code or code has expired. Please request a new code."
	MsgResetCodeValid  = "Verification code is valid. You can now reset your password."
	MsgEmailVerified   = "Email verified successfully! You can now login."
	MsgVerifyFailed    = "Failed to verify email. Please try again."
	MsgProvideEmail    = "Please provide email address."
	MsgAlreadyVerified = "Email is already verified. You can login now."
	MsgCodeResent      = "New verification code sent to your email!"
	MsgCodeFailed      = "Failed to generate new code. Please try again."
	MsgMailFailed      = "Failed to send verification email. Please try again."

	MsgInvalidCredentials = "Invalid credentials."
	MsgVerifyBeforeLogin  = "Please verify your email before logging in. Check your email for the verification code."
	MsgLoggedIn           = "Login successful."

	MsgProvideYourEmail = "Please provide your email address."
	MsgNoAccount        = "No account found with this email address."
	MsgVerifyFirst      = "Please verify your email first before resetting password."
	MsgResetSent        = "A verification code has been sent to your email. Please check your inbox and use it to reset your password."
	MsgResetMailFailed  = "Failed to send password reset email. Please try again."
	MsgResetCodeFailed  = "Failed to generate temporary password. Please try again."

	MsgEmailAndPassword = "Please provide both email and password."
	MsgPasswordShort    = "Password must be at least 6 characters long."
	MsgResetExpired     = "Password reset code has expired or is invalid. Please request a new code."
	MsgPasswordUpdated  = "Password has been successfully updated. You can now login with your new password."
	MsgPasswordFailed   = "Failed to update password. Please try again."

	MsgAdminAuthenticated = "Authentication successful"
	MsgAdminPassword      = "Password changed successfully"
)

const (
	minPasswordLength = 6
	resetCodeTTL      = 10 * time.Minute
)
