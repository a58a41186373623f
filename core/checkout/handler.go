package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dvelichkov/storefront/api/background"
	"github.com/dvelichkov/storefront/api/web"
	"github.com/dvelichkov/storefront/api/weberr"
	"github.com/dvelichkov/storefront/core/cart"
	"github.com/dvelichkov/storefront/core/delivery"
	"github.com/dvelichkov/storefront/core/order"
	"github.com/dvelichkov/storefront/core/product"
	"github.com/dvelichkov/storefront/pubsub"
	"github.com/dvelichkov/storefront/random"
	"github.com/dvelichkov/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// sessionKey links the browser session to its in-flight checkout, which
// itself never touches the durable session blob.
const sessionKey = "checkout_id"

type Handlers struct {
	DB       *sqlx.DB
	Carts    *cart.Store
	Sessions *Store
	Session  *scs.SessionManager
	Bus      *pubsub.Bus
	BG       *background.Background
	Log      logrus.FieldLogger
}

type StartInput struct {
	Mode      string `json:"mode" validate:"required,oneof=cart direct"`
	ProductID string `json:"productId" validate:"required_if=Mode direct,omitempty,uuid4"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

// HandleStart opens a checkout session, replacing any previous one. The
// delivery directory is fetched here, once per session; a failed fetch
// still lets the buyer fill identity fields.
func (h *Handlers) HandleStart() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in StartInput
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if fields := validate.CheckFields(in); fields != nil {
			return weberr.Validation(errors.New("invalid checkout start"), fields)
		}

		var s *Session
		switch Mode(in.Mode) {
		case ModeCart:
			c := h.Carts.Load(ctx)
			if len(c.Lines) == 0 {
				err := errors.New("the cart is empty")
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			if inc := c.Incomplete(); len(inc) > 0 {
				fields := make([]validate.FieldError, 0, len(inc))
				for _, id := range inc {
					fields = append(fields, validate.FieldError{Field: id, Message: "choose the product options for this line"})
				}
				return weberr.Validation(errors.New("cart lines are missing options"), fields)
			}
			s = h.Sessions.Create(ModeCart)

		case ModeDirect:
			p, err := product.Fetch(ctx, h.DB, in.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrNotFound) {
					return weberr.NotFound(err)
				}
				return fmt.Errorf("fetching product[%s]: %w", in.ProductID, err)
			}

			quantity := in.Quantity
			if quantity < 1 {
				quantity = 1
			}

			s = h.Sessions.Create(ModeDirect)
			s.SetDirect(DirectItem{Product: p, Quantity: quantity, Color: in.Color, Size: in.Size})
		}

		if dir, err := delivery.FetchAll(ctx, h.DB); err != nil {
			h.Log.WithField("message", err).Warn("delivery directory unavailable at checkout start")
		} else {
			s.SetDirectory(delivery.BuyerView(dir))
		}

		// One checkout at a time per browser session.
		if prev := h.Session.GetString(ctx, sessionKey); prev != "" {
			h.Sessions.Delete(prev)
		}
		h.Session.Put(ctx, sessionKey, s.ID())

		return web.Respond(ctx, w, s.View(h.lines(ctx, s)), http.StatusCreated)
	}
}

func (h *Handlers) HandleShow() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := h.current(ctx)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, s.View(h.lines(ctx, s)), http.StatusOK)
	}
}

func (h *Handlers) HandleIdentity() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := h.current(ctx)
		if err != nil {
			return err
		}

		var in Identity
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		fields, err := s.SubmitIdentity(in)
		if err != nil {
			return shippingError(err)
		}
		if fields != nil {
			return weberr.Validation(errors.New("invalid identity details"), fields)
		}

		return web.Respond(ctx, w, s.View(h.lines(ctx, s)), http.StatusOK)
	}
}

func (h *Handlers) HandleShipping() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := h.current(ctx)
		if err != nil {
			return err
		}

		// A directory fetch that failed at start is retried on every
		// shipping interaction until it succeeds.
		if !s.DeliveryAvailable() {
			if dir, err := delivery.FetchAll(ctx, h.DB); err != nil {
				h.Log.WithField("message", err).Warn("delivery directory still unavailable")
			} else {
				s.SetDirectory(delivery.BuyerView(dir))
			}
		}

		var up ShippingUpdate
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		if err := s.UpdateShipping(up); err != nil {
			return shippingError(err)
		}

		return web.Respond(ctx, w, s.View(h.lines(ctx, s)), http.StatusOK)
	}
}

// HandleSubmit is the one-shot order submission. The session's submit
// guard makes rapid duplicate triggers produce exactly one order.
func (h *Handlers) HandleSubmit() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := h.current(ctx)
		if err != nil {
			return err
		}

		lines := h.lines(ctx, s)

		fields, err := s.BeginSubmit(lines)
		if err != nil {
			switch {
			case errors.Is(err, ErrSubmitting):
				return weberr.NewError(err, err.Error(), http.StatusConflict)
			case errors.Is(err, ErrCompleted):
				return weberr.NewError(err, err.Error(), http.StatusConflict)
			default:
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
		}
		if fields != nil {
			return weberr.Validation(errors.New("checkout is not complete"), fields)
		}

		ord := buildOrder(s.Snapshot(), s.Price(lines), lines)

		if err := order.Submit(ctx, h.DB, ord); err != nil {
			s.FinishSubmit(err)
			h.Log.WithField("message", err).Error("order submission failed")
			return weberr.NewError(err, "the order could not be placed, please try again", http.StatusInternalServerError)
		}

		s.FinishSubmit(nil)

		if s.Mode() == ModeCart {
			h.Carts.Clear(ctx)
		}
		h.Session.Remove(ctx, sessionKey)
		h.Sessions.Delete(s.ID())

		h.BG.Add(func() error {
			h.Bus.Publish(pubsub.TopicOrderCreated, ord.ID)
			return nil
		})

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

// HandleAbandon discards the session; nothing partial survives.
func (h *Handlers) HandleAbandon() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if id := h.Session.GetString(ctx, sessionKey); id != "" {
			h.Sessions.Delete(id)
			h.Session.Remove(ctx, sessionKey)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func (h *Handlers) current(ctx context.Context) (*Session, error) {
	id := h.Session.GetString(ctx, sessionKey)
	if id == "" {
		return nil, weberr.NotFound(errors.New("no checkout in progress"))
	}

	s, ok := h.Sessions.Get(id)
	if !ok {
		return nil, weberr.NotFound(errors.New("no checkout in progress"))
	}

	return s, nil
}

func (h *Handlers) lines(ctx context.Context, s *Session) []cart.Line {
	if s.Mode() != ModeCart {
		return nil
	}
	return h.Carts.Load(ctx).Lines
}

func shippingError(err error) error {
	switch {
	case errors.Is(err, ErrDirectoryUnavailable):
		return weberr.NewError(err, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, ErrSubmitting), errors.Is(err, ErrCompleted):
		return weberr.NewError(err, err.Error(), http.StatusConflict)
	default:
		return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
	}
}

func buildOrder(snap Snapshot, pricing Pricing, lines []cart.Line) order.Order {
	now := time.Now().UTC()

	ord := order.Order{
		ID:           validate.GenerateID(),
		Reference:    "SF-" + random.Reference(8),
		FirstName:    snap.Identity.FirstName,
		LastName:     snap.Identity.LastName,
		Email:        snap.Identity.Email,
		Phone1:       snap.Identity.Phone1,
		Phone2:       snap.Identity.Phone2,
		Address:      snap.Address,
		RegionCode:   snap.RegionCode,
		RegionName:   snap.RegionName,
		Municipality: snap.Municipality,
		DeliveryMode: string(snap.DeliveryMode),
		CarrierName:  snap.Carrier.Name,
		DeliveryCost: pricing.DeliveryCost,
		Subtotal:     pricing.Subtotal,
		Total:        pricing.Total,
		Currency:     snap.Carrier.Currency,
		Status:       order.Pending,
		StatusLabel:  order.Pending.Label(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch snap.Mode {
	case ModeDirect:
		d := snap.Direct
		ord.Items = []order.Item{{
			ID:        validate.GenerateID(),
			OrderID:   ord.ID,
			ProductID: d.Product.ID,
			Name:      d.Product.Name,
			UnitPrice: d.Product.Price,
			Quantity:  d.Quantity,
			Color:     d.Color,
			Size:      d.Size,
			CreatedAt: now,
		}}
	default:
		ord.Items = make([]order.Item, 0, len(lines))
		for _, l := range lines {
			ord.Items = append(ord.Items, order.Item{
				ID:        validate.GenerateID(),
				OrderID:   ord.ID,
				ProductID: l.ProductID,
				Name:      l.Name,
				UnitPrice: l.UnitPrice,
				Quantity:  l.Quantity,
				Color:     l.Color,
				Size:      l.Size,
				CreatedAt: now,
			})
		}
	}

	return ord
}
