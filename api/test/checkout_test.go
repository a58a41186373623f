package test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dvelichkov/storefront/core/checkout"
	"github.com/dvelichkov/storefront/core/delivery"
	"github.com/dvelichkov/storefront/core/order"
	"github.com/dvelichkov/storefront/pubsub"
)

func identityBody() map[string]any {
	return map[string]any{
		"firstName": "Ivan",
		"lastName":  "Petrov",
		"phone1":    "0881234567",
	}
}

func (te *TestEnv) checkoutView(t *testing.T, w *http.Response, want int) checkout.View {
	t.Helper()

	wantStatus(t, w, want)
	var v checkout.View
	decode(t, w, &v)
	return v
}

func TestCheckoutCartMode(t *testing.T) {
	env, err := NewTestEnv(t, "checkout_cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	p := env.createProductOK(t, "Shirt", 1000, nil, nil)
	env.createRegionOK(t, "16", "Plovdiv")
	carrier := env.createCarrierOK(t, "16", "Speedy", 400, 300, true)

	created := make(chan any, 1)
	env.Bus.Subscribe(pubsub.TopicOrderCreated, func(ev pubsub.Event) {
		created <- ev.Payload
	})

	env.addToCartOK(t, p.ID, 2, "", "")

	v := env.checkoutView(t, env.Do(t, http.MethodPost, "/checkout", map[string]any{"mode": "cart"}), http.StatusCreated)
	if v.State != checkout.StateIdentity {
		t.Fatalf("expected identity state, got %q", v.State)
	}
	if !v.DeliveryAvailable {
		t.Fatal("delivery directory should be available")
	}

	v = env.checkoutView(t, env.Do(t, http.MethodPut, "/checkout/identity", identityBody()), http.StatusOK)
	if v.State != checkout.StateShipping {
		t.Fatalf("expected shipping state, got %q", v.State)
	}

	env.checkoutView(t, env.Do(t, http.MethodPut, "/checkout/shipping", map[string]any{
		"regionCode":   "16",
		"municipality": "Plovdiv",
	}), http.StatusOK)
	env.checkoutView(t, env.Do(t, http.MethodPut, "/checkout/shipping", map[string]any{
		"carrierId": carrier.ID,
	}), http.StatusOK)
	v = env.checkoutView(t, env.Do(t, http.MethodPut, "/checkout/shipping", map[string]any{
		"deliveryMode": "home",
		"address":      "42 Kapitan Raycho St",
	}), http.StatusOK)

	if v.Pricing.Subtotal != 2000 || v.Pricing.DeliveryCost != 400 || v.Pricing.Total != 2400 {
		t.Fatalf("expected 2000+400=2400, got %+v", v.Pricing)
	}

	w := env.Do(t, http.MethodPost, "/checkout/submit", nil)
	wantStatus(t, w, http.StatusCreated)

	var ord order.Order
	decode(t, w, &ord)
	if ord.Total != 2400 || ord.Subtotal != 2000 || ord.DeliveryCost != 400 {
		t.Fatalf("unexpected order pricing: %+v", ord)
	}
	if ord.Status != order.Pending {
		t.Fatalf("orders are placed unpaid, expected pending, got %q", ord.Status)
	}
	if ord.CarrierName != "Speedy" || ord.DeliveryMode != "home" {
		t.Fatalf("unexpected delivery snapshot: %+v", ord)
	}
	if !strings.HasPrefix(ord.Reference, "SF-") {
		t.Fatalf("unexpected order reference %q", ord.Reference)
	}

	// Confirmed submission clears the cart.
	if c := env.cartOK(t); len(c.Items) != 0 {
		t.Fatalf("cart must be empty after submission, got %d lines", len(c.Items))
	}

	// And the back office sees the order.
	w = env.DoAdmin(t, http.MethodGet, "/orders/"+ord.ID, nil)
	wantStatus(t, w, http.StatusOK)
	var fetched order.Order
	decode(t, w, &fetched)
	if len(fetched.Items) != 1 || fetched.Items[0].Quantity != 2 {
		t.Fatalf("unexpected persisted items: %+v", fetched.Items)
	}
	if fetched.StatusLabel != order.Pending.Label() {
		t.Fatalf("unexpected status label %q", fetched.StatusLabel)
	}

	// The event is published off the request goroutine.
	select {
	case id := <-created:
		if id != ord.ID {
			t.Fatalf("expected event for order %s, got %v", ord.ID, id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no order.created event published")
	}
}

func TestCheckoutDirectMode(t *testing.T) {
	env, err := NewTestEnv(t, "checkout_direct_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	p := env.createProductOK(t, "Shirt", 1000, []string{"red", "blue"}, nil)
	env.createRegionOK(t, "16", "Plovdiv")
	carrier := env.createCarrierOK(t, "16", "Speedy", 400, 300, true)

	// Direct buy never touches the cart.
	env.checkoutView(t, env.Do(t, http.MethodPost, "/checkout", map[string]any{
		"mode":      "direct",
		"productId": p.ID,
		"quantity":  1,
	}), http.StatusCreated)

	env.checkoutView(t, env.Do(t, http.MethodPut, "/checkout/identity", identityBody()), http.StatusOK)
	env.checkoutView(t, env.Do(t, http.MethodPut, "/checkout/shipping", map[string]any{
		"regionCode":   "16",
		"municipality": "Plovdiv",
	}), http.StatusOK)
	env.checkoutView(t, env.Do(t, http.MethodPut, "/checkout/shipping", map[string]any{
		"carrierId":    carrier.ID,
		"deliveryMode": "office",
	}), http.StatusOK)

	// No color chosen: the submission is blocked with the field flagged.
	w := env.Do(t, http.MethodPost, "/checkout/submit", nil)
	wantStatus(t, w, http.StatusUnprocessableEntity)
	var body validationBody
	decode(t, w, &body)
	if len(body.Fields) != 1 || body.Fields[0].Field != "color" {
		t.Fatalf("expected the color to be flagged, got %+v", body.Fields)
	}

	env.checkoutView(t, env.Do(t, http.MethodPut, "/checkout/shipping", map[string]any{
		"color": "red",
	}), http.StatusOK)

	// Office delivery: address stays empty, submission succeeds.
	w = env.Do(t, http.MethodPost, "/checkout/submit", nil)
	wantStatus(t, w, http.StatusCreated)
	var ord order.Order
	decode(t, w, &ord)
	if ord.Total != 1300 || ord.DeliveryMode != "office" || ord.Address != "" {
		t.Fatalf("unexpected order: %+v", ord)
	}
	if len(ord.Items) != 1 || ord.Items[0].Color != "red" {
		t.Fatalf("unexpected items: %+v", ord.Items)
	}

	// Nothing was ever added to the cart, so nothing was cleared.
	if c := env.cartOK(t); len(c.Items) != 0 {
		t.Fatalf("direct mode must not touch the cart, got %d lines", len(c.Items))
	}
}

func TestCheckoutIdentityGuardOrder(t *testing.T) {
	env, err := NewTestEnv(t, "checkout_guard_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	p := env.createProductOK(t, "Shirt", 1000, nil, nil)
	env.addToCartOK(t, p.ID, 1, "", "")

	env.checkoutView(t, env.Do(t, http.MethodPost, "/checkout", map[string]any{"mode": "cart"}), http.StatusCreated)

	w := env.Do(t, http.MethodPut, "/checkout/identity", map[string]any{
		"lastName": "Petrov",
		"phone1":   "12345",
	})
	wantStatus(t, w, http.StatusUnprocessableEntity)

	var body validationBody
	decode(t, w, &body)
	if len(body.Fields) < 2 {
		t.Fatalf("expected both failing fields reported, got %+v", body.Fields)
	}
	if body.Fields[0].Field != "firstName" {
		t.Fatalf("first invalid field must come first, got %q", body.Fields[0].Field)
	}

	// The session is still on step one.
	v := env.checkoutView(t, env.Do(t, http.MethodGet, "/checkout", nil), http.StatusOK)
	if v.State != checkout.StateIdentity {
		t.Fatalf("expected identity state, got %q", v.State)
	}
}

func TestDeliveryDirectoryBuyerFilter(t *testing.T) {
	env, err := NewTestEnv(t, "delivery_filter_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	env.createRegionOK(t, "16", "Plovdiv")
	env.createCarrierOK(t, "16", "Speedy", 400, 300, true)
	env.createCarrierOK(t, "16", "Retired", 500, 500, false)
	env.createRegionOK(t, "22", "Sofia")
	env.createCarrierOK(t, "22", "Dormant", 450, 250, false)

	type directory struct {
		Costs map[string]delivery.Region `json:"costs"`
	}

	w := env.Do(t, http.MethodGet, "/delivery-costs", nil)
	wantStatus(t, w, http.StatusOK)
	var buyer directory
	decode(t, w, &buyer)

	if _, ok := buyer.Costs["22"]; ok {
		t.Fatal("region with only inactive carriers must be hidden from buyers")
	}
	reg, ok := buyer.Costs["16"]
	if !ok || len(reg.Carriers) != 1 || reg.Carriers[0].Name != "Speedy" {
		t.Fatalf("expected only the active carrier, got %+v", reg.Carriers)
	}

	// The admin view keeps everything for historical orders.
	w = env.DoAdmin(t, http.MethodGet, "/admin/delivery-costs", nil)
	wantStatus(t, w, http.StatusOK)
	var admin directory
	decode(t, w, &admin)

	if len(admin.Costs["16"].Carriers) != 2 || len(admin.Costs["22"].Carriers) != 1 {
		t.Fatalf("admin view must be unfiltered, got %+v", admin.Costs)
	}
}

func TestCheckoutAbandon(t *testing.T) {
	env, err := NewTestEnv(t, "checkout_abandon_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	p := env.createProductOK(t, "Shirt", 1000, nil, nil)
	env.addToCartOK(t, p.ID, 1, "", "")

	env.checkoutView(t, env.Do(t, http.MethodPost, "/checkout", map[string]any{"mode": "cart"}), http.StatusCreated)

	w := env.Do(t, http.MethodDelete, "/checkout", nil)
	wantStatus(t, w, http.StatusNoContent)
	w.Body.Close()

	// The session is gone, the cart is not.
	w = env.Do(t, http.MethodGet, "/checkout", nil)
	wantStatus(t, w, http.StatusNotFound)
	w.Body.Close()

	if c := env.cartOK(t); len(c.Items) != 1 {
		t.Fatalf("abandoning checkout must not touch the cart, got %d lines", len(c.Items))
	}
}
