package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
)

// UserController handles registration, login and the account's own profile
type UserController struct {
	Users        store.UserStore
	EmailService *utils.EmailService
	PublicURL    string
}

// NewUserController creates a new UserController with EmailService
func NewUserController(users store.UserStore, emailService *utils.EmailService, publicURL string) *UserController {
	return &UserController{
		Users:        users,
		EmailService: emailService,
		PublicURL:    publicURL,
	}
}

type userSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type tokenResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	Data    userSummary `json:"data"`
}

type registerInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type emailInput struct {
	Email string `json:"email" validate:"required,email"`
}

type updateDetailsInput struct {
	Name    *string         `json:"name" validate:"omitempty,min=1,max=50"`
	Email   *string         `json:"email" validate:"omitempty,email"`
	Phone   *string         `json:"phone"`
	Address *models.Address `json:"address"`
}

type updatePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type resetPasswordInput struct {
	Password string `json:"password" validate:"required,min=6"`
}

// sendTokenResponse signs a session token, sets it as a cookie and echoes it in the body
func sendTokenResponse(w http.ResponseWriter, user *models.User, status int) {
	token, err := utils.GenerateJWT(user.ID, user.Role)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.SetTokenCookie(w, token)
	utils.WriteJSON(w, status, tokenResponse{
		Success: true,
		Token:   token,
		Data: userSummary{
			ID:     user.ID.Hex(),
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
			Avatar: user.Avatar,
		},
	})
}

// issueVerification stores a fresh verification token hash and emails the raw token.
// When the email cannot be sent the token is withdrawn again.
func (uc *UserController) issueVerification(ctx context.Context, r *http.Request, user *models.User) error {
	raw, hashed, err := utils.GenerateToken()
	if err != nil {
		return err
	}
	user.SetVerificationToken(hashed, time.Now().Add(utils.VerificationTokenTTL))
	if err := uc.Users.Update(ctx, user); err != nil {
		return err
	}

	link := linkBase(r, uc.PublicURL) + "/api/auth/verify-email/" + raw
	if sendErr := uc.EmailService.SendVerificationEmail(ctx, user.Email, link); sendErr != nil {
		user.ClearVerificationToken()
		if err := uc.Users.Update(ctx, user); err != nil {
			log.Printf("Clearing verification token for %s failed: %v", user.Email, err)
		}
		return sendErr
	}
	return nil
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var input registerInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	// Check if user already exists
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := uc.Users.FindByEmail(ctx, email); err == nil {
		utils.RespondError(w, utils.NewError(utils.KindUserExists, "User already exists"))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, err)
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: hashedPassword,
		Role:     models.RoleUser,
	}
	if err := uc.Users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = utils.NewError(utils.KindUserExists, "User already exists")
		}
		utils.RespondError(w, err)
		return
	}

	message := "User registered successfully. Please check your email to verify your account."
	if err := uc.issueVerification(ctx, r, user); err != nil {
		// Registration stands; the user can ask for a new verification email.
		log.Printf("Email send failed during register, proceeding anyway: %v", err)
		message = "User registered. Verification email could not be sent right now. You can request a new one later."
	}

	utils.WriteJSON(w, http.StatusCreated, utils.Response{
		Success: true,
		Message: message,
		Data:    userSummary{ID: user.ID.Hex(), Name: user.Name, Email: user.Email},
	})
}

// VerifyEmail marks the account holding the token as verified
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	hashed := utils.HashToken(mux.Vars(r)["token"])
	user, err := uc.Users.FindByVerificationToken(ctx, hashed, time.Now())
	if err != nil {
		utils.RespondError(w, notFoundAs(err, utils.NewError(utils.KindInvalidToken, "Invalid or expired verification token")))
		return
	}

	user.IsEmailVerified = true
	user.ClearVerificationToken()
	if err := uc.Users.Update(ctx, user); err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Email verified successfully")
}

// ResendVerification sends a new verification link to an unverified account
func (uc *UserController) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var input emailInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, utils.NewError(utils.KindNotFound, "There is no user with that email")))
		return
	}
	if user.IsEmailVerified {
		utils.RespondError(w, utils.NewError(utils.KindValidation, "Email is already verified"))
		return
	}
	if err := uc.issueVerification(ctx, r, user); err != nil {
		log.Printf("Resending verification email failed: %v", err)
		utils.RespondError(w, utils.NewError(utils.KindInternal, "Email could not be sent"))
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Verification email sent")
}

// Login checks the credentials and starts a session
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	invalid := utils.NewError(utils.KindInvalidCredentials, "Invalid credentials")
	user, err := uc.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, invalid))
		return
	}
	if !utils.CheckPassword(user.Password, input.Password) {
		utils.RespondError(w, invalid)
		return
	}
	if !user.IsEmailVerified {
		utils.RespondError(w, utils.NewError(utils.KindEmailNotVerified, "Please verify your email before logging in"))
		return
	}

	sendTokenResponse(w, user, http.StatusOK)
}

// Logout replaces the session cookie
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	utils.ClearTokenCookie(w)
	utils.RespondMessage(w, http.StatusOK, "User logged out successfully")
}

// GetMe returns the signed-in user's profile
func (uc *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, utils.NewError(utils.KindNotFound, "User not found")))
		return
	}
	utils.RespondData(w, http.StatusOK, user)
}

// UpdateDetails changes name, email, phone or address. Omitted fields are kept.
func (uc *UserController) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	var input updateDetailsInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, utils.NewError(utils.KindNotFound, "User not found")))
		return
	}
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Address != nil {
		user.Address = *input.Address
	}

	if err := uc.Users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = utils.NewError(utils.KindUserExists, "Email is already in use")
		}
		utils.RespondError(w, err)
		return
	}
	utils.RespondData(w, http.StatusOK, user)
}

// UpdatePassword replaces the password after checking the current one
func (uc *UserController) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	var input updatePasswordInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, utils.NewError(utils.KindNotFound, "User not found")))
		return
	}
	if !utils.CheckPassword(user.Password, input.CurrentPassword) {
		utils.RespondError(w, utils.NewError(utils.KindIncorrectPassword, "Password is incorrect"))
		return
	}

	hashedPassword, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	user.Password = hashedPassword
	if err := uc.Users.Update(ctx, user); err != nil {
		utils.RespondError(w, err)
		return
	}
	sendTokenResponse(w, user, http.StatusOK)
}

// ForgotPassword emails a reset link valid for ten minutes
func (uc *UserController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input emailInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, utils.NewError(utils.KindNotFound, "There is no user with that email")))
		return
	}

	raw, hashed, err := utils.GenerateToken()
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	user.SetResetToken(hashed, time.Now().Add(utils.ResetTokenTTL))
	if err := uc.Users.Update(ctx, user); err != nil {
		utils.RespondError(w, err)
		return
	}

	link := linkBase(r, uc.PublicURL) + "/api/auth/resetpassword/" + raw
	if err := uc.EmailService.SendPasswordResetEmail(ctx, user.Email, link); err != nil {
		log.Printf("Password reset email failed: %v", err)
		user.ClearResetToken()
		if err := uc.Users.Update(ctx, user); err != nil {
			log.Printf("Clearing reset token for %s failed: %v", user.Email, err)
		}
		utils.RespondError(w, utils.NewError(utils.KindInternal, "Email could not be sent"))
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Password reset email sent")
}

// ResetPassword sets a new password using an emailed token and signs the user in
func (uc *UserController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input resetPasswordInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	hashed := utils.HashToken(mux.Vars(r)["token"])
	user, err := uc.Users.FindByResetToken(ctx, hashed, time.Now())
	if err != nil {
		utils.RespondError(w, notFoundAs(err, utils.NewError(utils.KindInvalidToken, "Invalid or expired reset token")))
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	user.Password = hashedPassword
	user.ClearResetToken()
	if err := uc.Users.Update(ctx, user); err != nil {
		utils.RespondError(w, err)
		return
	}
	sendTokenResponse(w, user, http.StatusOK)
}
