package restaurant

// Rating is a star score with a short comment. It is persisted as its own
// document pointing back at the restaurant it rates.
type Rating struct {
	stars   int
	comment string
}

func NewRating(stars int, comment string) Rating {
	return Rating{stars: stars, comment: comment}
}

func (r Rating) Stars() int      { return r.stars }
func (r Rating) Comment() string { return r.comment }

// ValidateRating evaluates every rating rule and returns the failures in
// rule order.
func ValidateRating(r Rating) Violations {
	var v rules
	v.check(r.stars > 0, "stars", "stars must be greater than zero")
	v.check(r.stars <= 5, "stars", "stars must be less than or equal to 5")
	v.notEmpty("comment", r.comment, "comment must not be empty")
	v.maxLen("comment", r.comment, 100, "comment must have at most 100 characters")
	return v.out
}

func (r Rating) Validate() (Violations, bool) {
	v := ValidateRating(r)
	return v, v.Valid()
}
