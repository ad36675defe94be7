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

// CartController handles cart-related requests
type CartController struct {
	Carts    store.CartStore
	Products store.ProductStore
}

// NewCartController creates a new CartController
func NewCartController(carts store.CartStore, products store.ProductStore) *CartController {
	return &CartController{Carts: carts, Products: products}
}

var (
	errCartNotFound     = utils.NewError(utils.KindNotFound, "Cart not found")
	errCartItemNotFound = utils.NewError(utils.KindNotFound, "Item not found in cart")
)

// cartItemView is a cart line with its product resolved. Product is null when the
// product has since been deleted.
type cartItemView struct {
	models.CartItem
	Product *models.Product `json:"product"`
}

type cartView struct {
	ID         primitive.ObjectID `json:"id"`
	User       primitive.ObjectID `json:"user"`
	Items      []cartItemView     `json:"items"`
	TotalItems int                `json:"totalItems"`
	TotalPrice float64            `json:"totalPrice"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// populate resolves the products referenced by the cart lines.
func (cc *CartController) populate(ctx context.Context, cart *models.Cart) (*cartView, error) {
	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.Product)
	}
	products := map[primitive.ObjectID]*models.Product{}
	if len(ids) > 0 {
		var err error
		if products, err = cc.Products.FindByIDs(ctx, ids); err != nil {
			return nil, err
		}
	}

	view := &cartView{
		ID:         cart.ID,
		User:       cart.User,
		Items:      make([]cartItemView, 0, len(cart.Items)),
		TotalItems: cart.TotalItems,
		TotalPrice: cart.TotalPrice,
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		view.Items = append(view.Items, cartItemView{CartItem: item, Product: products[item.Product]})
	}
	return view, nil
}

func (cc *CartController) respond(ctx context.Context, w http.ResponseWriter, cart *models.Cart, message string) {
	view, err := cc.populate(ctx, cart)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Response{Success: true, Message: message, Data: view})
}

// GetCart returns the user's cart, creating an empty one on first use
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.GetOrCreate(ctx, userID)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	cc.respond(ctx, w, cart, "")
}

type addToCartInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000"`
	Size      string `json:"size" validate:"required"`
	Color     string `json:"color"`
}

// AddToCart adds a product variant to the user's cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	var input addToCartInput
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

	product, err := cc.Products.FindByID(ctx, productID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}
	if !product.IsActive {
		utils.RespondError(w, utils.NewError(utils.KindProductInactive, "Product is not available"))
		return
	}

	cart, err := cc.Carts.GetOrCreate(ctx, userID)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	// The line may already hold units of this variant; the merged quantity must fit.
	available, ok := product.AvailableStock(input.Size)
	existing := cart.LineQuantity(productID, input.Size, input.Color)
	if !ok || input.Quantity > available-existing {
		utils.RespondError(w, utils.NewError(utils.KindInsufficientStock, "Insufficient stock for selected size"))
		return
	}

	cart.AddItem(productID, input.Quantity, input.Size, input.Color, product.Price)
	if err := cc.Carts.Save(ctx, cart); err != nil {
		utils.RespondError(w, err)
		return
	}
	cc.respond(ctx, w, cart, "Item added to cart successfully")
}

type updateCartItemInput struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=1000"`
}

// UpdateCartItem sets the quantity of one cart line
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	itemID, err := pathID(r, "itemId", errCartItemNotFound)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	var input updateCartItemInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.FindByUser(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errCartNotFound))
		return
	}
	i := cart.ItemIndex(itemID)
	if i < 0 {
		utils.RespondError(w, errCartItemNotFound)
		return
	}

	item := cart.Items[i]
	product, err := cc.Products.FindByID(ctx, item.Product)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}
	if available, ok := product.AvailableStock(item.Size); !ok || available < input.Quantity {
		utils.RespondError(w, utils.NewError(utils.KindInsufficientStock, "Insufficient stock for selected quantity"))
		return
	}

	cart.Items[i].Quantity = input.Quantity
	cart.Recalculate()
	if err := cc.Carts.Save(ctx, cart); err != nil {
		utils.RespondError(w, err)
		return
	}
	cc.respond(ctx, w, cart, "Cart item updated successfully")
}

// RemoveFromCart deletes one cart line
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	itemID, err := pathID(r, "itemId", errCartItemNotFound)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.FindByUser(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errCartNotFound))
		return
	}
	if !cart.RemoveItem(itemID) {
		utils.RespondError(w, errCartItemNotFound)
		return
	}
	if err := cc.Carts.Save(ctx, cart); err != nil {
		utils.RespondError(w, err)
		return
	}
	cc.respond(ctx, w, cart, "Item removed from cart successfully")
}

// ClearCart empties the user's cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.FindByUser(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errCartNotFound))
		return
	}
	cart.Clear()
	if err := cc.Carts.Save(ctx, cart); err != nil {
		utils.RespondError(w, err)
		return
	}
	cc.respond(ctx, w, cart, "Cart cleared successfully")
}
