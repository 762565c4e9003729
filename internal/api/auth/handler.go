package auth

import (
	"strings"
	"sync"
	"time"

	"oahelper-api/internal/api/request"
	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/admins"
	"oahelper-api/internal/domain/session"
	"oahelper-api/internal/domain/users"
	"oahelper-api/internal/mailer"
	"oahelper-api/internal/platform/logger"
	"oahelper-api/internal/supabase"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	users    *users.Store
	mail     *mailer.Mailer
	sessions *session.Issuer
	admins   *admins.Service
	now      func() time.Time
}

func NewHandler(u *users.Store, mail *mailer.Mailer, sessions *session.Issuer, a *admins.Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{users: u, mail: mail, sessions: sessions, admins: a, now: now}
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// compareDummy spends the same bcrypt work as a real comparison so unknown
// emails are not distinguishable by latency.
func compareDummy(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("oahelper-timing-equaliser"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func userSummary(u *users.User, verified bool) gin.H {
	return gin.H{"id": u.ID, "name": u.Name, "email": u.Email, "verified": verified}
}

// Signup answers POST /api/auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		College  string `json:"college"`
	}
	if !request.Bind(c, &input) {
		return
	}
	name := strings.TrimSpace(input.Name)
	email := users.NormalizeEmail(input.Email)
	college := strings.TrimSpace(input.College)

	if name == "" || email == "" || input.Password == "" || college == "" {
		respond.Error(c, MsgFillAllFields)
		return
	}
	if !request.IsGmail(email) {
		respond.Error(c, MsgUseGmail)
		return
	}

	ctx := c.Request.Context()
	banned, err := h.users.IsBanned(ctx, email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if banned {
		respond.Error(c, MsgBanned)
		return
	}

	existing, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if existing != nil {
		respond.Error(c, MsgAlreadyRegistered)
		return
	}

	code, err := users.GenerateCode()
	if err != nil {
		respond.Fail(c, err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	user, err := h.users.Create(ctx, users.NewUser{
		Name:             name,
		Email:            email,
		PasswordHash:     string(hash),
		College:          college,
		VerificationCode: code,
	})
	if err != nil {
		logger.From(c).WithError(err).Error("auth: signup insert failed")
		respond.Error(c, MsgRegistrationFailed)
		return
	}

	// The account stays; a failed mail is recoverable through resend-code.
	sent := h.mail.VerificationCode(ctx, user.Email, user.Name, code) == nil

	respond.With(c, MsgRegistered, gin.H{
		"user":                  userSummary(user, false),
		"requires_verification": true,
		"email_sent":            sent,
	})
}

// VerifyCode answers POST /api/auth/verify-code for both signup and reset codes.
func (h *Handler) VerifyCode(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !request.Bind(c, &input) {
		return
	}
	email := users.NormalizeEmail(input.Email)
	code := strings.TrimSpace(input.Code)

	if email == "" || code == "" {
		respond.Error(c, MsgEmailAndCode)
		return
	}
	if !users.IsCode(code) {
		respond.Error(c, MsgCodeFormat)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if user == nil {
		respond.Error(c, MsgNoUser)
		return
	}

	switch intent := user.Intent(h.now()).(type) {
	case users.ResetIntent:
		if !users.Matches(intent.Code, code) {
			respond.Error(c, MsgInvalidCode)
			return
		}
		respond.With(c, MsgResetCodeValid, gin.H{"reset_verified": true, "user_id": user.ID})

	case users.SignupIntent:
		if !users.Matches(intent.Code, code) {
			respond.Error(c, MsgInvalidCode)
			return
		}
		if err := h.users.Update(ctx, user.ID, map[string]any{"verified": true, "verification_code": nil}); err != nil {
			logger.From(c).WithError(err).Error("auth: verify update failed")
			respond.Error(c, MsgVerifyFailed)
			return
		}
		respond.With(c, MsgEmailVerified, gin.H{"user": userSummary(user, true)})

	default:
		respond.Error(c, MsgCodeExpired)
	}
}

// ResendCode answers POST /api/auth/resend-code.
func (h *Handler) ResendCode(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if !request.Bind(c, &input) {
		return
	}
	email := users.NormalizeEmail(input.Email)
	if email == "" {
		respond.Error(c, MsgProvideEmail)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if user == nil {
		respond.Error(c, MsgNoUser)
		return
	}
	if user.Verified {
		respond.Error(c, MsgAlreadyVerified)
		return
	}

	code, err := users.GenerateCode()
	if err == nil {
		err = h.users.Update(ctx, user.ID, map[string]any{"verification_code": code})
	}
	if err != nil {
		logger.From(c).WithError(err).Error("auth: resend update failed")
		respond.Error(c, MsgCodeFailed)
		return
	}

	if err := h.mail.VerificationCode(ctx, user.Email, user.Name, code); err != nil {
		respond.Error(c, MsgMailFailed)
		return
	}
	respond.Success(c, MsgCodeResent, nil)
}

// Login answers POST /api/auth/login with a signed session token.
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !request.Bind(c, &input) {
		return
	}
	email := users.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		respond.Error(c, MsgFillAllFields)
		return
	}

	ctx := c.Request.Context()
	banned, err := h.users.IsBanned(ctx, email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if banned {
		respond.Error(c, MsgBanned)
		return
	}

	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if user == nil || user.Password == "" {
		compareDummy(input.Password)
		respond.Error(c, MsgInvalidCredentials)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		respond.Error(c, MsgInvalidCredentials)
		return
	}
	if !user.Verified {
		respond.Error(c, MsgVerifyBeforeLogin)
		return
	}

	role := user.Role
	if role == "" {
		role = users.RoleUser
	}
	token, err := h.sessions.Issue(user.ID, user.Email, role)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	respond.With(c, MsgLoggedIn, gin.H{"user": gin.H{
		"id":                 user.ID,
		"name":               user.Name,
		"email":              user.Email,
		"verified":           user.Verified,
		"used_temp_password": false,
		"oacoins":            user.OACoins,
		"uuid":               user.PublicID(),
		"token":              token,
	}})
}

// ForgotPassword answers POST /api/auth/forgot-password.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if !request.Bind(c, &input) {
		return
	}
	email := users.NormalizeEmail(input.Email)
	if email == "" {
		respond.Error(c, MsgProvideYourEmail)
		return
	}
	if !request.IsGmail(email) {
		respond.Error(c, MsgUseGmail)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if user == nil {
		respond.Error(c, MsgNoAccount)
		return
	}
	if !user.Verified {
		respond.Error(c, MsgVerifyFirst)
		return
	}

	code, err := users.GenerateCode()
	if err == nil {
		err = h.users.Update(ctx, user.ID, map[string]any{
			"password_reset_code":    code,
			"password_reset_expires": supabase.NewTime(h.now().Add(resetCodeTTL)),
		})
	}
	if err != nil {
		logger.From(c).WithError(err).Error("auth: reset code update failed")
		respond.Error(c, MsgResetCodeFailed)
		return
	}

	if err := h.mail.PasswordReset(ctx, user.Email, user.Name, code); err != nil {
		respond.Error(c, MsgResetMailFailed)
		return
	}
	respond.Success(c, MsgResetSent, nil)
}

// ResetPassword answers POST /api/auth/reset-password. The code must equal the
// live reset code.
func (h *Handler) ResetPassword(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if !request.Bind(c, &input) {
		return
	}
	email := users.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		respond.Error(c, MsgEmailAndPassword)
		return
	}
	if len(input.Password) < minPasswordLength {
		respond.Error(c, MsgPasswordShort)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	if user == nil {
		respond.Error(c, MsgNoUser)
		return
	}

	live, ok := user.LiveResetCode(h.now())
	code := strings.TrimSpace(input.Code)
	if !ok || code == "" {
		respond.Error(c, MsgResetExpired)
		return
	}
	if !users.Matches(live, code) {
		respond.Error(c, MsgInvalidCode)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	err = h.users.Update(ctx, user.ID, map[string]any{
		"password":               string(hash),
		"password_reset_code":    nil,
		"password_reset_expires": nil,
	})
	if err != nil {
		logger.From(c).WithError(err).Error("auth: password update failed")
		respond.Error(c, MsgPasswordFailed)
		return
	}
	respond.Success(c, MsgPasswordUpdated, nil)
}

// CheckEmail answers POST /api/auth/check-email. Its status field is one of
// available, exists_verified or exists_unverified rather than success.
func (h *Handler) CheckEmail(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if !request.Bind(c, &input) {
		return
	}
	email := users.NormalizeEmail(input.Email)
	if email == "" {
		respond.Error(c, MsgProvideEmail)
		return
	}
	if !request.IsGmail(email) {
		respond.Error(c, MsgUseGmail)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	switch {
	case user == nil:
		c.JSON(200, gin.H{"status": "available", "message": "Email is available for registration", "action": "signup"})
	case user.Verified:
		c.JSON(200, gin.H{
			"status":    "exists_verified",
			"message":   "This email is already registered and verified. Please login instead.",
			"action":    "login",
			"user_name": user.Name,
		})
	default:
		c.JSON(200, gin.H{
			"status":    "exists_unverified",
			"message":   "This email is already registered but not verified. Please verify your email.",
			"action":    "verify",
			"user_name": user.Name,
		})
	}
}
