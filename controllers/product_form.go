package controllers

import (
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go-storefront/models"
	"go-storefront/utils"
)

const maxUploadMemory = 32 << 20

// productForm is a product write request read from either a multipart form
// (admin UI with image uploads) or a JSON body. Multipart values arrive as strings,
// so every accessor normalizes.
type productForm struct {
	fields map[string]interface{}
	files  []*multipart.FileHeader
}

func readProductForm(r *http.Request) (*productForm, error) {
	form := &productForm{fields: map[string]interface{}{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return nil, utils.NewError(utils.KindValidation, "Failed to parse multipart form")
		}
		for key, values := range r.MultipartForm.Value {
			if len(values) == 1 {
				form.fields[key] = values[0]
				continue
			}
			list := make([]interface{}, len(values))
			for i, v := range values {
				list[i] = v
			}
			form.fields[key] = list
		}
		form.files = r.MultipartForm.File["images"]
	} else if err := json.NewDecoder(r.Body).Decode(&form.fields); err != nil {
		return nil, utils.NewError(utils.KindValidation, "Invalid input")
	}

	if len(form.files) > utils.MaxProductImages {
		return nil, utils.NewError(utils.KindValidation, "You can upload at most %d images", utils.MaxProductImages)
	}
	for _, fh := range form.files {
		if !utils.IsValidImageExtension(fh.Filename) {
			return nil, utils.NewError(utils.KindValidation, "%s: %s", fh.Filename, utils.ErrUnsupportedImage)
		}
	}
	return form, nil
}

func (f *productForm) has(key string) bool {
	v, ok := f.fields[key]
	return ok && v != nil
}

func (f *productForm) str(key string) string {
	switch v := f.fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// toNumber converts JSON numbers and numeric strings. Anything else yields fallback.
func toNumber(value interface{}, fallback float64) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return fallback
		}
		return n
	default:
		return fallback
	}
}

func (f *productForm) number(key string, fallback float64) float64 {
	return toNumber(f.fields[key], fallback)
}

func (f *productForm) boolean(key string, fallback bool) bool {
	switch v := f.fields[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

// objects returns the field as a list of JSON objects. Multipart forms send these
// as a JSON-encoded string.
func (f *productForm) objects(key string) []map[string]interface{} {
	value := f.fields[key]
	if s, ok := value.(string); ok {
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil
		}
		value = decoded
	}
	list, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *productForm) sizes() []models.SizeStock {
	var sizes []models.SizeStock
	for _, m := range f.objects("sizes") {
		size, _ := m["size"].(string)
		if size == "" {
			continue
		}
		sizes = append(sizes, models.SizeStock{Size: size, Stock: int(toNumber(m["stock"], 0))})
	}
	return sizes
}

func (f *productForm) colors() []models.Color {
	var colors []models.Color
	for _, m := range f.objects("colors") {
		name, _ := m["name"].(string)
		hex, _ := m["hex"].(string)
		if name == "" {
			continue
		}
		colors = append(colors, models.Color{Name: name, Hex: hex})
	}
	return colors
}

// bodyImages reads image references sent as URLs or {public_id, url} objects.
func (f *productForm) bodyImages() []models.Image {
	var items []interface{}
	switch v := f.fields["images"].(type) {
	case string:
		items = []interface{}{v}
	case []interface{}:
		items = v
	}
	var images []models.Image
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				images = append(images, models.Image{PublicID: v, URL: v})
			}
		case map[string]interface{}:
			url, _ := v["url"].(string)
			publicID, _ := v["public_id"].(string)
			if url == "" {
				continue
			}
			if publicID == "" {
				publicID = url
			}
			images = append(images, models.Image{PublicID: publicID, URL: url})
		}
	}
	return images
}

func (f *productForm) shipping(current models.ProductShipping) models.ProductShipping {
	value := f.fields["shippingInfo"]
	if s, ok := value.(string); ok {
		var decoded interface{}
		if json.Unmarshal([]byte(s), &decoded) == nil {
			value = decoded
		}
	}
	m, ok := value.(map[string]interface{})
	if !ok {
		return current
	}
	if free, ok := m["freeShipping"].(bool); ok {
		current.FreeShipping = free
	}
	if eta, ok := m["estimatedDelivery"].(string); ok && eta != "" {
		current.EstimatedDelivery = eta
	}
	return current
}

// derivedDiscount is the percentage off originalPrice, rounded and never negative.
func derivedDiscount(price, originalPrice float64) float64 {
	if originalPrice <= 0 {
		return 0
	}
	return math.Max(0, math.Round((1-price/originalPrice)*100))
}

// newProductFromForm builds a product for creation, defaulting what the form omits.
func newProductFromForm(f *productForm) *models.Product {
	price := f.number("price", 0)
	originalPrice := f.number("originalPrice", price)
	discount := derivedDiscount(price, originalPrice)
	if f.has("discount") {
		discount = f.number("discount", 0)
	}
	stock := int(f.number("stock", 0))

	p := &models.Product{
		Name:             orDefault(f.str("name"), "Untitled Product"),
		Description:      orDefault(f.str("description"), "Description not provided"),
		Price:            price,
		OriginalPrice:    originalPrice,
		Discount:         discount,
		Category:         orDefault(f.str("category"), "men"),
		Subcategory:      orDefault(f.str("subcategory"), "general"),
		Brand:            orDefault(f.str("brand"), models.DefaultBrand),
		Sizes:            f.sizes(),
		Colors:           f.colors(),
		Stock:            stock,
		IsActive:         f.boolean("isActive", true),
		Material:         f.str("material"),
		CareInstructions: f.str("careInstructions"),
		ShippingInfo:     f.shipping(models.ProductShipping{EstimatedDelivery: models.DefaultEstimatedDelivery}),
		Images:           f.bodyImages(),
	}
	if len(p.Sizes) == 0 {
		p.Sizes = []models.SizeStock{{Size: "M", Stock: stock}}
	}
	if len(p.Colors) == 0 {
		p.Colors = []models.Color{{Name: "Default", Hex: "#000000"}}
	}
	return p
}

// applyForm copies the fields present in the form onto p. Numbers that do not
// parse keep their previous value.
func applyForm(p *models.Product, f *productForm) {
	for key, dst := range map[string]*string{
		"name":             &p.Name,
		"description":      &p.Description,
		"category":         &p.Category,
		"subcategory":      &p.Subcategory,
		"brand":            &p.Brand,
		"material":         &p.Material,
		"careInstructions": &p.CareInstructions,
	} {
		if f.has(key) {
			*dst = f.str(key)
		}
	}
	if f.has("price") {
		p.Price = f.number("price", p.Price)
	}
	if f.has("originalPrice") {
		p.OriginalPrice = f.number("originalPrice", p.OriginalPrice)
	}
	if f.has("discount") {
		p.Discount = f.number("discount", p.Discount)
	}
	if f.has("stock") {
		p.Stock = int(f.number("stock", float64(p.Stock)))
	}
	if f.has("isActive") {
		p.IsActive = f.boolean("isActive", p.IsActive)
	}
	if sizes := f.sizes(); len(sizes) > 0 {
		p.Sizes = sizes
	}
	if colors := f.colors(); len(colors) > 0 {
		p.Colors = colors
	}
	p.ShippingInfo = f.shipping(p.ShippingInfo)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
