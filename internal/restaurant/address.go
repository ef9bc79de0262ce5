package restaurant

// Address is the location of a restaurant. It has no identity of its own and
// is only ever stored inside its restaurant.
type Address struct {
	street     string
	number     string
	city       string
	regionCode string
	postalCode string
}

// NewAddress builds an address. Every field may be empty here; emptiness is
// reported by ValidateAddress.
func NewAddress(street, number, city, regionCode, postalCode string) Address {
	return Address{
		street:     street,
		number:     number,
		city:       city,
		regionCode: regionCode,
		postalCode: postalCode,
	}
}

func (a Address) Street() string     { return a.street }
func (a Address) Number() string     { return a.number }
func (a Address) City() string       { return a.city }
func (a Address) RegionCode() string { return a.regionCode }
func (a Address) PostalCode() string { return a.postalCode }

// ValidateAddress evaluates every address rule and returns the failures in
// rule order.
func ValidateAddress(a Address) Violations {
	var r rules
	r.notEmpty("street", a.street, "street must not be empty")
	r.maxLen("street", a.street, 50, "street must have at most 50 characters")
	r.notEmpty("city", a.city, "city must not be empty")
	r.maxLen("city", a.city, 100, "city must have at most 100 characters")
	r.notEmpty("regionCode", a.regionCode, "region code must not be empty")
	r.exactLen("regionCode", a.regionCode, 2, "region code must have 2 characters")
	r.notEmpty("postalCode", a.postalCode, "postal code must not be empty")
	r.exactLen("postalCode", a.postalCode, 8, "postal code must have 8 characters")
	return r.out
}

// Validate is ValidateAddress plus the validity flag.
func (a Address) Validate() (Violations, bool) {
	v := ValidateAddress(a)
	return v, v.Valid()
}
