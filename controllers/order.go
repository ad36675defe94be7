package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderController handles order-related requests
type OrderController struct {
	Orders       store.OrderStore
	Products     store.ProductStore
	Carts        store.CartStore
	Users        store.UserStore
	EmailService *utils.EmailService
	Cache        utils.Cache
}

// NewOrderController creates a new OrderController
func NewOrderController(orders store.OrderStore, products store.ProductStore, carts store.CartStore, users store.UserStore, emailService *utils.EmailService, cache utils.Cache) *OrderController {
	if cache == nil {
		cache = utils.NopCache{}
	}
	return &OrderController{
		Orders:       orders,
		Products:     products,
		Carts:        carts,
		Users:        users,
		EmailService: emailService,
		Cache:        cache,
	}
}

var errOrderNotFound = utils.NewError(utils.KindNotFound, "Order not found")

type orderItemInput struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=1000"`
	Size     string `json:"size"`
	Color    string `json:"color"`
}

type createOrderInput struct {
	OrderItems   []orderItemInput    `json:"orderItems" validate:"required,min=1,dive"`
	ShippingInfo models.ShippingInfo `json:"shippingInfo" validate:"required"`
	PaymentInfo  models.PaymentInfo  `json:"paymentInfo" validate:"required"`
}

// orderOwner is the part of the ordering user shown alongside an order.
type orderOwner struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

type orderView struct {
	*models.Order
	User interface{} `json:"user"`
}

// withOwner attaches the owner's name and email, or just the id when the
// account no longer exists.
func (oc *OrderController) withOwner(ctx context.Context, order *models.Order, owners map[primitive.ObjectID]*orderOwner) orderView {
	owner, seen := owners[order.User]
	if !seen {
		if user, err := oc.Users.FindByID(ctx, order.User); err == nil {
			owner = &orderOwner{ID: user.ID, Name: user.Name, Email: user.Email}
		}
		owners[order.User] = owner
	}
	if owner == nil {
		return orderView{Order: order, User: order.User}
	}
	return orderView{Order: order, User: owner}
}

// ownerEmail returns the address notifications for order go to.
func (oc *OrderController) ownerEmail(ctx context.Context, order *models.Order) (string, error) {
	user, err := oc.Users.FindByID(ctx, order.User)
	if err != nil {
		return "", fmt.Errorf("load order owner: %w", err)
	}
	return user.Email, nil
}

// CreateOrder places an order from the submitted lines
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	var input createOrderInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ids := make([]primitive.ObjectID, len(input.OrderItems))
	for i, item := range input.OrderItems {
		id, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil {
			utils.RespondError(w, utils.NewError(utils.KindProductNotFound, "Product not found: %s", item.Product))
			return
		}
		ids[i] = id
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	products, err := oc.Products.FindByIDs(ctx, ids)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	order := &models.Order{
		User:         userID,
		OrderItems:   make([]models.OrderItem, 0, len(input.OrderItems)),
		ShippingInfo: input.ShippingInfo,
		PaymentInfo:  input.PaymentInfo,
		OrderStatus:  models.StatusProcessing,
	}
	for i, item := range input.OrderItems {
		product, ok := products[ids[i]]
		if !ok {
			utils.RespondError(w, utils.NewError(utils.KindProductNotFound, "Product not found: %s", item.Product))
			return
		}
		order.OrderItems = append(order.OrderItems, models.SnapshotItem(product, item.Quantity, item.Size, item.Color))
	}
	order.ApplyPricing()

	if err := oc.Orders.Create(ctx, order); err != nil {
		utils.RespondError(w, err)
		return
	}

	utils.BestEffort(ctx, "order confirmation email", func(ctx context.Context) error {
		email, err := oc.ownerEmail(ctx, order)
		if err != nil {
			return err
		}
		return oc.EmailService.SendOrderConfirmationEmail(ctx, email, order)
	})
	utils.BestEffort(ctx, "clear cart after order", func(ctx context.Context) error {
		return oc.Carts.ClearItems(ctx, userID)
	})

	utils.RespondData(w, http.StatusCreated, order)
}

// loadOwnedOrder fetches the order in the path and checks the caller may act on it.
func (oc *OrderController) loadOwnedOrder(ctx context.Context, r *http.Request, action string) (*models.Order, error) {
	claims, userID, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	id, err := pathID(r, "id", errOrderNotFound)
	if err != nil {
		return nil, err
	}
	order, err := oc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, errOrderNotFound)
	}
	if !order.IsOwnedBy(userID) && !claims.IsAdmin() {
		return nil, utils.NewError(utils.KindNotAuthorized, "Not authorized to %s this order", action)
	}
	return order, nil
}

// GetOrder returns one order to its owner or an admin
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.loadOwnedOrder(ctx, r, "access")
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondData(w, http.StatusOK, oc.withOwner(ctx, order, map[primitive.ObjectID]*orderOwner{}))
}

// GetMyOrders lists the current user's orders, newest first
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	orders, err := oc.Orders.ListByUser(ctx, userID)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, listResponse{Success: true, Count: len(orders), Data: orders})
}

type allOrdersResponse struct {
	Success     bool        `json:"success"`
	Count       int         `json:"count"`
	TotalAmount float64     `json:"totalAmount"`
	Data        []orderView `json:"data"`
}

// GetAllOrders lists every order with the revenue they add up to (Admin only)
func (oc *OrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	orders, err := oc.Orders.ListAll(ctx)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	resp := allOrdersResponse{Success: true, Count: len(orders), Data: make([]orderView, 0, len(orders))}
	owners := map[primitive.ObjectID]*orderOwner{}
	for i := range orders {
		resp.TotalAmount += orders[i].TotalPrice
		resp.Data = append(resp.Data, oc.withOwner(ctx, &orders[i], owners))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

type updateOrderInput struct {
	OrderStatus    string  `json:"orderStatus" validate:"required"`
	ForceOverride  bool    `json:"forceOverride"`
	TrackingNumber *string `json:"trackingNumber"`
	Notes          *string `json:"notes"`
}

// UpdateOrder moves an order through its status lifecycle (Admin only)
func (oc *OrderController) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", errOrderNotFound)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	var input updateOrderInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, id)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errOrderNotFound))
		return
	}

	fx, err := order.ApplyStatus(input.OrderStatus, input.ForceOverride, time.Now().UTC())
	switch {
	case errors.Is(err, models.ErrAlreadyDelivered):
		utils.RespondError(w, utils.NewError(utils.KindAlreadyDelivered, "You have already delivered this order"))
		return
	case errors.Is(err, models.ErrInvalidStatus):
		utils.RespondError(w, utils.NewError(utils.KindValidation, "Invalid order status: %s", input.OrderStatus))
		return
	case err != nil:
		utils.RespondError(w, err)
		return
	}

	if fx.Delete {
		if err := oc.Orders.Delete(ctx, id); err != nil {
			utils.RespondError(w, notFoundAs(err, errOrderNotFound))
			return
		}
		utils.RespondMessage(w, http.StatusOK, "Order cancelled and deleted")
		return
	}

	if input.TrackingNumber != nil {
		order.TrackingNumber = *input.TrackingNumber
	}
	if input.Notes != nil {
		order.Notes = *input.Notes
	}
	if err := oc.Orders.Update(ctx, order); err != nil {
		utils.RespondError(w, notFoundAs(err, errOrderNotFound))
		return
	}

	if fx.DecrementStock {
		oc.decrementStock(ctx, order)
	}
	if fx.Notify {
		utils.BestEffort(ctx, "order status email", func(ctx context.Context) error {
			email, err := oc.ownerEmail(ctx, order)
			if err != nil {
				return err
			}
			return oc.EmailService.SendOrderStatusEmail(ctx, email, order)
		})
	}

	utils.RespondData(w, http.StatusOK, order)
}

// decrementStock deducts each shipped line from its product's size stock. Every
// line is an independent read-modify-write; concurrent shipments of the same
// product can interleave.
func (oc *OrderController) decrementStock(ctx context.Context, order *models.Order) {
	for _, item := range order.OrderItems {
		item := item
		utils.BestEffort(ctx, "decrement stock "+item.Product.Hex(), func(ctx context.Context) error {
			product, err := oc.Products.FindByID(ctx, item.Product)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			product.DecrementStock(item.Size, item.Quantity)
			if err := oc.Products.Update(ctx, product); err != nil {
				return err
			}
			if err := oc.Cache.Delete(ctx, productCacheKey(item.Product.Hex())); err != nil {
				log.Printf("product cache: delete %s: %v", item.Product.Hex(), err)
			}
			return nil
		})
	}
}

// CancelOrder lets the owner or an admin cancel an order. Cancelled orders are deleted.
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.loadOwnedOrder(ctx, r, "cancel")
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	if err := oc.Orders.Delete(ctx, order.ID); err != nil {
		utils.RespondError(w, notFoundAs(err, errOrderNotFound))
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Order cancelled and deleted")
}

// DeleteOrder removes an order (Admin only)
func (oc *OrderController) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", errOrderNotFound)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := oc.Orders.Delete(ctx, id); err != nil {
		utils.RespondError(w, notFoundAs(err, errOrderNotFound))
		return
	}
	utils.RespondMessage(w, http.StatusOK, "Order deleted successfully")
}
