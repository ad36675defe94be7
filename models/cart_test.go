package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCartMergesSameVariant(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	product := primitive.NewObjectID()

	first := cart.AddItem(product, 2, "M", "Red", 100)
	second := cart.AddItem(product, 3, "M", "Red", 120)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 100.0, cart.Items[0].Price)
	assert.Equal(t, 5, cart.TotalItems)
	assert.Equal(t, 500.0, cart.TotalPrice)
	assert.Equal(t, 5, cart.LineQuantity(product, "M", "Red"))
}

func TestCartKeepsDistinctVariants(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	product := primitive.NewObjectID()

	cart.AddItem(product, 1, "M", "Red", 100)
	cart.AddItem(product, 1, "L", "Red", 100)
	cart.AddItem(product, 1, "M", "Blue", 100)

	assert.Len(t, cart.Items, 3)
	assert.Equal(t, 0, cart.LineQuantity(product, "S", "Red"))
}

func TestCartRemoveAndClear(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	a := cart.AddItem(primitive.NewObjectID(), 1, "M", "Red", 10)
	cart.AddItem(primitive.NewObjectID(), 2, "S", "Red", 20)

	assert.True(t, cart.RemoveItem(a.ID))
	assert.False(t, cart.RemoveItem(a.ID))
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, 40.0, cart.TotalPrice)

	cart.Clear()
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalPrice)
}

func TestWishlistSet(t *testing.T) {
	w := NewWishlist(primitive.NewObjectID())
	p := primitive.NewObjectID()

	assert.True(t, w.Add(p))
	assert.False(t, w.Add(p))
	assert.Len(t, w.Products, 1)
	assert.True(t, w.Remove(p))
	assert.False(t, w.Remove(p))
}
