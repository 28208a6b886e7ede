package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"ashtraymarket/internal/app/market/entity"
	"ashtraymarket/internal/app/market/service"
)

// UserHandler обрабатывает HTTP запросы учетных записей
type UserHandler struct {
	accountService service.AccountService
	validator      *validator.Validate
}

// NewUserHandler создает новый обработчик учетных записей
func NewUserHandler(accountService service.AccountService) *UserHandler {
	return &UserHandler{
		accountService: accountService,
		validator:      validator.New(),
	}
}

// Register обрабатывает POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	resp, err := h.accountService.Register(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CreateSuperuser обрабатывает POST /admin/superusers
func (h *UserHandler) CreateSuperuser(c *gin.Context) {
	var req entity.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	user, err := h.accountService.CreateSuperuser(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "Failed to create superuser")
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login обрабатывает POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req entity.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	resp, err := h.accountService.Authenticate(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "Failed to login")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshToken обрабатывает POST /auth/refresh
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req entity.RefreshRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	tokens, err := h.accountService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(c, err, "Failed to refresh tokens")
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Logout обрабатывает POST /auth/logout
func (h *UserHandler) Logout(c *gin.Context) {
	var req entity.RefreshRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.accountService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		handleServiceError(c, err, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe обрабатывает GET /users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.accountService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, "Failed to get profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe обрабатывает PUT /users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req entity.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	user, err := h.accountService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangePassword обрабатывает POST /users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req entity.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	if err := h.accountService.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		handleServiceError(c, err, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

// DeleteMe обрабатывает DELETE /users/me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err, "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// ListUsers обрабатывает GET /admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.accountService.ListUsers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": len(users),
	})
}

// CreateAddress обрабатывает POST /users/me/addresses
func (h *UserHandler) CreateAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req entity.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	address, err := h.accountService.CreateAddress(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err, "Failed to create address")
		return
	}

	c.JSON(http.StatusCreated, address)
}

// ListAddresses обрабатывает GET /users/me/addresses
func (h *UserHandler) ListAddresses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	addresses, err := h.accountService.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, "Failed to list addresses")
		return
	}

	c.JSON(http.StatusOK, addresses)
}

// DeleteAddress обрабатывает DELETE /users/me/addresses/:id
func (h *UserHandler) DeleteAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	addressID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid address ID")
		return
	}

	if err := h.accountService.DeleteAddress(c.Request.Context(), userID, addressID); err != nil {
		handleServiceError(c, err, "Failed to delete address")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}
