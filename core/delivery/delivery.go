package delivery

import "time"

// Region is one administrative delivery zone. Buyers only ever see
// regions that still have at least one active carrier.
type Region struct {
	Code      string    `json:"regionCode" db:"region_code"`
	Name      string    `json:"regionName" db:"region_name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Carriers  []Carrier `json:"companies" db:"-"`
}

// Carrier prices home and office delivery within its region. Inactive
// carriers stay in storage so old orders keep their names, but they are
// never offered to buyers.
type Carrier struct {
	ID          string    `json:"id" db:"carrier_id"`
	RegionCode  string    `json:"regionCode" db:"region_code"`
	Name        string    `json:"name" db:"name"`
	LogoURL     string    `json:"logoUrl" db:"logo_url"`
	Currency    string    `json:"currency" db:"currency"`
	HomePrice   int       `json:"homePrice" db:"home_price"`
	OfficePrice int       `json:"officePrice" db:"office_price"`
	Active      bool      `json:"active" db:"active"`
	Position    int       `json:"-" db:"position"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type RegionNew struct {
	Code string `json:"regionCode" validate:"required"`
	Name string `json:"regionName" validate:"required"`
}

type RegionUp struct {
	Name *string `json:"regionName"`
}

type CarrierNew struct {
	Name        string `json:"name" validate:"required"`
	LogoURL     string `json:"logoUrl" validate:"omitempty,url"`
	Currency    string `json:"currency" validate:"required,len=3"`
	HomePrice   int    `json:"homePrice" validate:"gte=0"`
	OfficePrice int    `json:"officePrice" validate:"gte=0"`
	Active      *bool  `json:"active"`
	Position    int    `json:"position" validate:"gte=0"`
}

type CarrierUp struct {
	Name        *string `json:"name"`
	LogoURL     *string `json:"logoUrl" validate:"omitempty,url"`
	Currency    *string `json:"currency" validate:"omitempty,len=3"`
	HomePrice   *int    `json:"homePrice" validate:"omitempty,gte=0"`
	OfficePrice *int    `json:"officePrice" validate:"omitempty,gte=0"`
	Active      *bool   `json:"active"`
	Position    *int    `json:"position" validate:"omitempty,gte=0"`
}

// Directory is the whole price table keyed by region code, as the
// checkout flow consumes it.
type Directory map[string]Region

// ActiveCarriers filters the region down to what buyers may choose,
// preserving the admin-set ordering.
func (r Region) ActiveCarriers() []Carrier {
	out := make([]Carrier, 0, len(r.Carriers))
	for _, c := range r.Carriers {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

// Carrier looks up a carrier by ID among the region's active ones.
func (r Region) Carrier(id string) (Carrier, bool) {
	for _, c := range r.ActiveCarriers() {
		if c.ID == id {
			return c, true
		}
	}
	return Carrier{}, false
}

// BuyerView drops inactive carriers and regions left with none. This is
// the directory's only checkout-facing contract beyond raw retrieval.
func BuyerView(d Directory) Directory {
	out := make(Directory, len(d))
	for code, r := range d {
		active := r.ActiveCarriers()
		if len(active) == 0 {
			continue
		}
		r.Carriers = active
		out[code] = r
	}
	return out
}
