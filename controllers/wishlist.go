package controllers

import (
	"context"
	"net/http"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WishlistController handles wishlist-related requests
type WishlistController struct {
	Wishlists store.WishlistStore
	Products  store.ProductStore
}

func NewWishlistController(wishlists store.WishlistStore, products store.ProductStore) *WishlistController {
	return &WishlistController{Wishlists: wishlists, Products: products}
}

var errWishlistNotFound = utils.NewError(utils.KindNotFound, "Wishlist not found")

// wishlistView is a wishlist with its products resolved. Deleted products are skipped.
type wishlistView struct {
	ID        primitive.ObjectID `json:"id"`
	User      primitive.ObjectID `json:"user"`
	Products  []models.Product   `json:"products"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (wc *WishlistController) populate(ctx context.Context, wl *models.Wishlist) (*wishlistView, error) {
	view := &wishlistView{
		ID:        wl.ID,
		User:      wl.User,
		Products:  []models.Product{},
		CreatedAt: wl.CreatedAt,
		UpdatedAt: wl.UpdatedAt,
	}
	if len(wl.Products) == 0 {
		return view, nil
	}
	products, err := wc.Products.FindByIDs(ctx, wl.Products)
	if err != nil {
		return nil, err
	}
	for _, id := range wl.Products {
		if p, ok := products[id]; ok {
			view.Products = append(view.Products, *p)
		}
	}
	return view, nil
}

// GetWishlist returns the user's wishlist, creating it on first use
func (wc *WishlistController) GetWishlist(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	wl, err := wc.Wishlists.GetOrCreate(ctx, userID)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	view, err := wc.populate(ctx, wl)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondData(w, http.StatusOK, view)
}

type wishlistInput struct {
	ProductID string `json:"productId" validate:"required"`
}

// AddToWishlist saves a product to the user's wishlist
func (wc *WishlistController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	var input wishlistInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}
	productID, err := primitive.ObjectIDFromHex(input.ProductID)
	if err != nil {
		utils.RespondError(w, errProductNotFound)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	wl, err := wc.Wishlists.GetOrCreate(ctx, userID)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	if wl.Contains(productID) {
		utils.RespondError(w, utils.NewError(utils.KindAlreadyInWishlist, "Product already in wishlist"))
		return
	}
	if _, err := wc.Products.FindByID(ctx, productID); err != nil {
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}

	wl.Add(productID)
	if err := wc.Wishlists.Save(ctx, wl); err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Response{Success: true, Message: "Product added to wishlist successfully", Data: wl})
}

// RemoveFromWishlist drops a product from the user's wishlist
func (wc *WishlistController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	notInList := utils.NewError(utils.KindNotFound, "Product not found in wishlist")
	productID, err := pathID(r, "productId", notInList)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	wl, err := wc.Wishlists.FindByUser(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errWishlistNotFound))
		return
	}
	if !wl.Remove(productID) {
		utils.RespondError(w, notInList)
		return
	}
	if err := wc.Wishlists.Save(ctx, wl); err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Response{Success: true, Message: "Product removed from wishlist successfully", Data: wl})
}

// ClearWishlist empties the user's wishlist
func (wc *WishlistController) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	wl, err := wc.Wishlists.FindByUser(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errWishlistNotFound))
		return
	}
	wl.Clear()
	if err := wc.Wishlists.Save(ctx, wl); err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Response{Success: true, Message: "Wishlist cleared successfully", Data: wl})
}
