package test

import (
	"net/http"
	"testing"

	"github.com/dvelichkov/storefront/core/delivery"
	"github.com/dvelichkov/storefront/core/product"
)

func (te *TestEnv) createProductOK(t *testing.T, name string, price int, colors, sizes []string) product.Product {
	t.Helper()

	w := te.DoAdmin(t, http.MethodPost, "/products", map[string]any{
		"name":     name,
		"price":    price,
		"currency": "BGN",
		"colors":   colors,
		"sizes":    sizes,
	})
	wantStatus(t, w, http.StatusCreated)

	var p product.Product
	decode(t, w, &p)
	return p
}

func (te *TestEnv) createRegionOK(t *testing.T, code, name string) {
	t.Helper()

	w := te.DoAdmin(t, http.MethodPost, "/admin/delivery/regions", map[string]any{
		"regionCode": code,
		"regionName": name,
	})
	wantStatus(t, w, http.StatusCreated)
	w.Body.Close()
}

func (te *TestEnv) createCarrierOK(t *testing.T, region, name string, home, office int, active bool) delivery.Carrier {
	t.Helper()

	w := te.DoAdmin(t, http.MethodPost, "/admin/delivery/regions/"+region+"/carriers", map[string]any{
		"name":        name,
		"currency":    "BGN",
		"homePrice":   home,
		"officePrice": office,
		"active":      active,
	})
	wantStatus(t, w, http.StatusCreated)

	var c delivery.Carrier
	decode(t, w, &c)
	return c
}

// cartView mirrors the cart endpoints' response shape.
type cartView struct {
	Items []struct {
		LineID   string `json:"lineId"`
		Quantity int    `json:"quantity"`
		Color    string `json:"color"`
		Size     string `json:"size"`
	} `json:"items"`
	Count      int      `json:"count"`
	Total      int      `json:"total"`
	Incomplete []string `json:"incomplete"`
}

func (te *TestEnv) addToCartOK(t *testing.T, productID string, quantity int, color, size string) cartView {
	t.Helper()

	w := te.Do(t, http.MethodPost, "/cart/items", map[string]any{
		"productId": productID,
		"quantity":  quantity,
		"color":     color,
		"size":      size,
	})
	wantStatus(t, w, http.StatusCreated)

	var c cartView
	decode(t, w, &c)
	return c
}

func (te *TestEnv) cartOK(t *testing.T) cartView {
	t.Helper()

	w := te.Do(t, http.MethodGet, "/cart", nil)
	wantStatus(t, w, http.StatusOK)

	var c cartView
	decode(t, w, &c)
	return c
}

// validationBody mirrors weberr's validation response.
type validationBody struct {
	Error  string `json:"error"`
	Fields []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}
