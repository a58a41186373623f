// Package checkout drives the two-step order flow: identity first, then
// shipping, then a single submission. A checkout session is ephemeral,
// held in memory only; abandoning the page discards it.
package checkout

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dvelichkov/storefront/core/cart"
	"github.com/dvelichkov/storefront/core/delivery"
	"github.com/dvelichkov/storefront/core/product"
	"github.com/dvelichkov/storefront/validate"
)

type State string

const (
	StateIdentity   State = "identity"
	StateShipping   State = "shipping"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
)

// Mode says what the session prices: the whole cart, or a single
// product-quantity-variant tuple supplied at start.
type Mode string

const (
	ModeCart   Mode = "cart"
	ModeDirect Mode = "direct"
)

type DeliveryMode string

const (
	DeliverHome   DeliveryMode = "home"
	DeliverOffice DeliveryMode = "office"
)

var (
	ErrSubmitting           = errors.New("a submission is already in progress")
	ErrCompleted            = errors.New("this checkout has already completed")
	ErrIdentityFirst        = errors.New("identity details must be completed first")
	ErrDirectoryUnavailable = errors.New("delivery pricing is currently unavailable")
	ErrUnknownRegion        = errors.New("unknown delivery region")
	ErrUnknownCarrier       = errors.New("carrier is not offered in the selected region")
	ErrNoCarrierSelected    = errors.New("select a carrier before a delivery mode")
	ErrNoRegionSelected     = errors.New("select a region before a carrier")
	ErrBadDeliveryMode      = errors.New("delivery mode must be home or office")
	ErrBadOption            = errors.New("option is not offered for this product")
)

type Identity struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone1    string `json:"phone1" validate:"required,len=10,number"`
	Phone2    string `json:"phone2" validate:"omitempty,len=10,number"`
}

// DirectItem is the single line a direct-buy session prices instead of
// the cart.
type DirectItem struct {
	Product  product.Product
	Quantity int
	Color    string
	Size     string
}

type Pricing struct {
	Subtotal     int `json:"subtotal"`
	DeliveryCost int `json:"deliveryCost"`
	Total        int `json:"total"`
}

// Session is one buyer's in-flight checkout. All access goes through the
// methods; the mutex makes the submit guard race-free.
type Session struct {
	mu sync.Mutex

	id        string
	mode      Mode
	state     State
	createdAt time.Time

	identity     Identity
	regionCode   string
	municipality string
	address      string
	carrier      *delivery.Carrier
	deliveryMode DeliveryMode

	direct *DirectItem

	// directory is the buyer view fetched once at session start; nil
	// means the fetch failed and carrier selection is blocked until a
	// retry succeeds.
	directory delivery.Directory

	lastError string
}

func NewSession(mode Mode) *Session {
	return &Session{
		id:        validate.GenerateID(),
		mode:      mode,
		state:     StateIdentity,
		createdAt: time.Now().UTC(),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Mode() Mode { return s.mode }

func (s *Session) SetDirect(item DirectItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.direct = &item
}

func (s *Session) SetDirectory(dir delivery.Directory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory = dir
}

func (s *Session) DeliveryAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory != nil
}

// SubmitIdentity is the Step1 -> Step2 transition. On guard failure the
// session stays where it is and every failing field comes back, first
// invalid field first. Once a submission is in flight the identity is
// frozen along with the rest of the session.
func (s *Session) SubmitIdentity(in Identity) ([]validate.FieldError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitting:
		return nil, ErrSubmitting
	case StateSucceeded:
		return nil, ErrCompleted
	}

	if fields := validate.CheckFields(in); fields != nil {
		return fields, nil
	}

	s.identity = in
	if s.state == StateIdentity {
		s.state = StateShipping
	}
	return nil, nil
}

// ShippingUpdate is a partial update; nil leaves a field alone. An empty
// string clears a selection where that makes sense (carrier).
type ShippingUpdate struct {
	RegionCode   *string `json:"regionCode"`
	Municipality *string `json:"municipality"`
	CarrierID    *string `json:"carrierId"`
	DeliveryMode *string `json:"deliveryMode"`
	Address      *string `json:"address"`
	Color        *string `json:"color"`
	Size         *string `json:"size"`
}

// UpdateShipping applies the update, enforcing the selection order
// region -> carrier -> mode. Changing region invalidates the carrier and
// mode; changing carrier invalidates the mode. That reset cascade is
// what keeps a stale carrier from pricing an order for the wrong region.
func (s *Session) UpdateShipping(up ShippingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdentity:
		return ErrIdentityFirst
	case StateSubmitting:
		return ErrSubmitting
	case StateSucceeded:
		return ErrCompleted
	}

	if up.RegionCode != nil && *up.RegionCode != s.regionCode {
		if s.directory == nil {
			return ErrDirectoryUnavailable
		}
		if _, ok := s.directory[*up.RegionCode]; !ok {
			return ErrUnknownRegion
		}
		s.regionCode = *up.RegionCode
		s.carrier = nil
		s.deliveryMode = ""
	}

	if up.Municipality != nil {
		s.municipality = *up.Municipality
	}

	if up.CarrierID != nil {
		switch {
		case *up.CarrierID == "":
			s.carrier = nil
			s.deliveryMode = ""
		case s.regionCode == "":
			return ErrNoRegionSelected
		case s.directory == nil:
			return ErrDirectoryUnavailable
		default:
			region := s.directory[s.regionCode]
			c, ok := region.Carrier(*up.CarrierID)
			if !ok {
				return ErrUnknownCarrier
			}
			if s.carrier == nil || s.carrier.ID != c.ID {
				s.carrier = &c
				s.deliveryMode = ""
			}
		}
	}

	if up.DeliveryMode != nil {
		if s.carrier == nil {
			return ErrNoCarrierSelected
		}
		mode := DeliveryMode(*up.DeliveryMode)
		if mode != DeliverHome && mode != DeliverOffice {
			return ErrBadDeliveryMode
		}
		s.deliveryMode = mode
	}

	if up.Address != nil {
		s.address = *up.Address
	}

	if s.mode == ModeDirect && s.direct != nil {
		if up.Color != nil {
			if !inDomain(s.direct.Product.Colors, *up.Color) {
				return ErrBadOption
			}
			s.direct.Color = *up.Color
		}
		if up.Size != nil {
			if !inDomain(s.direct.Product.Sizes, *up.Size) {
				return ErrBadOption
			}
			s.direct.Size = *up.Size
		}
	}

	return nil
}

func inDomain(domain []string, choice string) bool {
	if choice == "" {
		return true
	}
	for _, d := range domain {
		if d == choice {
			return true
		}
	}
	return false
}

// Price is pure over the session's selections and the given cart lines
// (ignored in direct mode). Recomputed on every read, never cached.
func (s *Session) Price(lines []cart.Line) Pricing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.price(lines)
}

func (s *Session) price(lines []cart.Line) Pricing {
	var subtotal int
	switch s.mode {
	case ModeDirect:
		if s.direct != nil {
			subtotal = s.direct.Product.Price * s.direct.Quantity
		}
	default:
		for _, l := range lines {
			subtotal += l.UnitPrice * l.Quantity
		}
	}

	var cost int
	if s.carrier != nil {
		switch s.deliveryMode {
		case DeliverHome:
			cost = s.carrier.HomePrice
		case DeliverOffice:
			cost = s.carrier.OfficePrice
		}
	}

	return Pricing{Subtotal: subtotal, DeliveryCost: cost, Total: subtotal + cost}
}

// shippingErrors re-validates everything the submission depends on, in a
// fixed field order: identity fields, then region, municipality,
// carrier, delivery mode, address, then the direct-mode variant.
func (s *Session) shippingErrors() []validate.FieldError {
	fields := validate.CheckFields(s.identity)

	if s.regionCode == "" {
		fields = append(fields, validate.FieldError{Field: "regionCode", Message: "a delivery region is required"})
	}
	if s.municipality == "" {
		fields = append(fields, validate.FieldError{Field: "municipality", Message: "a municipality is required"})
	}

	if s.regionCode != "" && s.carrier == nil {
		// A region without active carriers never reaches the buyer
		// list, so a chosen region always requires a carrier.
		fields = append(fields, validate.FieldError{Field: "carrierId", Message: "a carrier is required"})
	}
	if s.carrier != nil && s.deliveryMode == "" {
		fields = append(fields, validate.FieldError{Field: "deliveryMode", Message: "choose home or office delivery"})
	}
	if s.deliveryMode == DeliverHome && strings.TrimSpace(s.address) == "" {
		fields = append(fields, validate.FieldError{Field: "address", Message: "a street address is required for home delivery"})
	}

	if s.mode == ModeDirect && s.direct != nil {
		if len(s.direct.Product.Colors) > 0 && s.direct.Color == "" {
			fields = append(fields, validate.FieldError{Field: "color", Message: "choose a color"})
		}
		if len(s.direct.Product.Sizes) > 0 && s.direct.Size == "" {
			fields = append(fields, validate.FieldError{Field: "size", Message: "choose a size"})
		}
	}

	return fields
}

// BeginSubmit is the Step2 -> Submitting transition. Exactly one caller
// wins; everyone else gets ErrSubmitting until FinishSubmit runs. Guard
// failures come back as field errors and leave the state untouched.
func (s *Session) BeginSubmit(lines []cart.Line) ([]validate.FieldError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitting:
		return nil, ErrSubmitting
	case StateSucceeded:
		return nil, ErrCompleted
	}

	if fields := s.shippingErrors(); fields != nil {
		return fields, nil
	}

	if s.mode == ModeCart && len(lines) == 0 {
		return nil, errors.New("the cart is empty")
	}

	s.state = StateSubmitting
	s.lastError = ""
	return nil, nil
}

// FinishSubmit resolves the submission. Failure returns the session to
// the shipping step with everything the buyer entered intact.
func (s *Session) FinishSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSubmitting {
		return
	}

	if err != nil {
		s.state = StateShipping
		s.lastError = err.Error()
		return
	}

	s.state = StateSucceeded
	s.lastError = ""
}

// Snapshot is an immutable copy of everything the order payload needs.
type Snapshot struct {
	Mode         Mode
	Identity     Identity
	RegionCode   string
	RegionName   string
	Municipality string
	Address      string
	Carrier      delivery.Carrier
	DeliveryMode DeliveryMode
	Direct       *DirectItem
}

// Snapshot must only be called between a successful BeginSubmit and
// FinishSubmit, while the guard holds the selections frozen.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Mode:         s.mode,
		Identity:     s.identity,
		RegionCode:   s.regionCode,
		Municipality: s.municipality,
		Address:      s.address,
		DeliveryMode: s.deliveryMode,
	}
	if s.carrier != nil {
		snap.Carrier = *s.carrier
	}
	if s.directory != nil {
		snap.RegionName = s.directory[s.regionCode].Name
	}
	if s.direct != nil {
		d := *s.direct
		snap.Direct = &d
	}
	return snap
}

type View struct {
	ID                string            `json:"id"`
	Mode              Mode              `json:"mode"`
	State             State             `json:"state"`
	Identity          Identity          `json:"identity"`
	RegionCode        string            `json:"regionCode"`
	Municipality      string            `json:"municipality"`
	Address           string            `json:"address"`
	Carrier           *delivery.Carrier `json:"carrier,omitempty"`
	DeliveryMode      DeliveryMode      `json:"deliveryMode,omitempty"`
	Pricing           Pricing           `json:"pricing"`
	DeliveryAvailable bool              `json:"deliveryAvailable"`
	LastError         string            `json:"lastError,omitempty"`
}

func (s *Session) View(lines []cart.Line) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:                s.id,
		Mode:              s.mode,
		State:             s.state,
		Identity:          s.identity,
		RegionCode:        s.regionCode,
		Municipality:      s.municipality,
		Address:           s.address,
		DeliveryMode:      s.deliveryMode,
		Pricing:           s.price(lines),
		DeliveryAvailable: s.directory != nil,
		LastError:         s.lastError,
	}
	if s.carrier != nil {
		c := *s.carrier
		v.Carrier = &c
	}
	return v
}
