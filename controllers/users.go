package controllers

import (
	"net/http"

	"go-storefront/store"
	"go-storefront/utils"
)

// AdminUserController lets administrators list accounts and change roles
type AdminUserController struct {
	Users store.UserStore
}

func NewAdminUserController(users store.UserStore) *AdminUserController {
	return &AdminUserController{Users: users}
}

type roleInput struct {
	Role string `json:"role" validate:"required,oneof=user admin staff"`
}

// GetUsers lists every account, newest first
func (ac *AdminUserController) GetUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	users, err := ac.Users.List(ctx)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, listResponse{Success: true, Count: len(users), Data: users})
}

// UpdateUserRole sets the role of the account in the path
func (ac *AdminUserController) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var input roleInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}
	notFound := utils.NewError(utils.KindNotFound, "User not found")
	userID, err := pathID(r, "id", notFound)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := ac.Users.FindByID(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, notFound))
		return
	}
	user.Role = input.Role
	if err := ac.Users.Update(ctx, user); err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondData(w, http.StatusOK, user)
}
