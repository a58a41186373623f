package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/dvelichkov/storefront/api/background"
	"github.com/dvelichkov/storefront/api/middleware"
	"github.com/dvelichkov/storefront/api/web"
	"github.com/dvelichkov/storefront/core/cart"
	"github.com/dvelichkov/storefront/core/checkout"
	"github.com/dvelichkov/storefront/core/delivery"
	"github.com/dvelichkov/storefront/core/order"
	"github.com/dvelichkov/storefront/core/product"
	"github.com/dvelichkov/storefront/pubsub"
	"github.com/dvelichkov/storefront/rate"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin  string
	Log         logrus.FieldLogger
	DB          *sqlx.DB
	Session     *scs.SessionManager
	Background  *background.Background
	Bus         *pubsub.Bus
	AdminToken  string
	SubmitLimit *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.Session(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	admin := middleware.Admin(cfg.AdminToken)

	carts := cart.NewStore(cfg.Session, cfg.Log)
	checkouts := &checkout.Handlers{
		DB:       cfg.DB,
		Carts:    carts,
		Sessions: checkout.NewStore(),
		Session:  cfg.Session,
		Bus:      cfg.Bus,
		BG:       cfg.Background,
		Log:      cfg.Log,
	}
	deliveries := &delivery.Handlers{
		DB:  cfg.DB,
		Bus: cfg.Bus,
		BG:  cfg.Background,
		Log: cfg.Log,
	}

	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodPost, "/products/{id}/view", product.HandleAddView(cfg.DB, cfg.Background))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(carts))
	a.Handle(http.MethodPost, "/cart/items", cart.HandleAddItem(cfg.DB, carts))
	a.Handle(http.MethodDelete, "/cart/items/{line_id}", cart.HandleRemoveItem(carts))
	a.Handle(http.MethodPut, "/cart/items/{line_id}/quantity", cart.HandleSetQuantity(carts))
	a.Handle(http.MethodPut, "/cart/items/{line_id}/options", cart.HandleSetOptions(carts))

	a.Handle(http.MethodGet, "/delivery-costs", deliveries.HandleDirectory())

	a.Handle(http.MethodPost, "/checkout", checkouts.HandleStart())
	a.Handle(http.MethodGet, "/checkout", checkouts.HandleShow())
	a.Handle(http.MethodPut, "/checkout/identity", checkouts.HandleIdentity())
	a.Handle(http.MethodPut, "/checkout/shipping", checkouts.HandleShipping())
	a.Handle(http.MethodPost, "/checkout/submit", checkouts.HandleSubmit(), middleware.RateLimit(cfg.SubmitLimit, cfg.Session))
	a.Handle(http.MethodDelete, "/checkout", checkouts.HandleAbandon())

	a.Handle(http.MethodGet, "/admin/delivery-costs", deliveries.HandleAdminDirectory(), admin)
	a.Handle(http.MethodPost, "/admin/delivery/regions", deliveries.HandleCreateRegion(), admin)
	a.Handle(http.MethodPut, "/admin/delivery/regions/{code}", deliveries.HandleUpdateRegion(), admin)
	a.Handle(http.MethodDelete, "/admin/delivery/regions/{code}", deliveries.HandleDeleteRegion(), admin)
	a.Handle(http.MethodPost, "/admin/delivery/regions/{code}/carriers", deliveries.HandleCreateCarrier(), admin)
	a.Handle(http.MethodPut, "/admin/delivery/carriers/{id}", deliveries.HandleUpdateCarrier(), admin)
	a.Handle(http.MethodDelete, "/admin/delivery/carriers/{id}", deliveries.HandleDeleteCarrier(), admin)

	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), admin)
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), admin)
	a.Handle(http.MethodPut, "/orders/{id}/status", order.HandleUpdateStatus(cfg.DB), admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
