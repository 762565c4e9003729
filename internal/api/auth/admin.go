package auth

import (
	"oahelper-api/internal/api/request"
	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/admins"

	"github.com/gin-gonic/gin"
)

// AdminLogin answers POST /api/admin/login and issues an admin session.
func (h *Handler) AdminLogin(c *gin.Context) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !request.Bind(c, &input) {
		return
	}

	info, err := h.admins.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respond.Fail(c, err)
		return
	}
	token, err := h.sessions.Issue(info.ID, info.Username, admins.RoleAdmin)
	if err != nil {
		respond.Fail(c, err)
		return
	}

	respond.Success(c, MsgAdminAuthenticated, gin.H{
		"admin_id":   info.ID,
		"username":   info.Username,
		"email":      info.Email,
		"role":       info.Role,
		"last_login": info.LastLogin,
		"token":      token,
		"expires_in": int(h.sessions.TTL().Seconds()),
	})
}

// AdminChangePassword answers POST /api/admin/change-password for the
// admin named in the session.
func (h *Handler) AdminChangePassword(c *gin.Context) {
	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !request.Bind(c, &input) {
		return
	}
	if err := h.admins.ChangePassword(c.Request.Context(), c.GetString("email"), input.OldPassword, input.NewPassword); err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, MsgAdminPassword, nil)
}

// AdminInfo answers GET /api/admin/me.
func (h *Handler) AdminInfo(c *gin.Context) {
	info, err := h.admins.Info(c.Request.Context(), c.GetString("email"))
	if err != nil {
		respond.Fail(c, err)
		return
	}
	respond.Success(c, "", info)
}
