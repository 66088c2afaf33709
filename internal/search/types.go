package search

import "fmt"

// Suggestion is one dropdown entry: a Product, a Category or a Query.
type Suggestion interface {
	Label() string
	group() Group
}

// Group orders suggestions in the dropdown.
type Group int

const (
	GroupProducts Group = iota
	GroupCategories
	GroupQueries
)

// Product links to a product detail page.
type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Price        string `json:"price"` // already formatted
	Category     string `json:"category"`
	CategoryIcon string `json:"category_icon"`
	ImageURL     string `json:"image_url,omitempty"`
}

// Category links to a filtered listing.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Icon         string `json:"icon"`
	ProductCount int    `json:"products_count"`
}

// Query is a popular search phrase.
type Query struct {
	Text  string `json:"query"`
	Count int    `json:"count"`
}

func (p Product) Label() string  { return p.Name }
func (c Category) Label() string { return c.Name }
func (q Query) Label() string    { return q.Text }

func (Product) group() Group  { return GroupProducts }
func (Category) group() Group { return GroupCategories }
func (Query) group() Group    { return GroupQueries }

// Result is one suggestion response, already split by group.
type Result struct {
	Products   []Product
	Categories []Category
	Queries    []Query
}

// State is the dropdown lifecycle of one search input.
type State int

const (
	Idle State = iota
	Pending
	Fetching
	Open
	Empty
)

var stateNames = [...]string{"idle", "pending", "fetching", "open", "empty"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown search state %q", b)
}

// Key is a keyboard key the dropdown reacts to.
type Key string

const (
	KeyArrowDown Key = "ArrowDown"
	KeyArrowUp   Key = "ArrowUp"
	KeyEnter     Key = "Enter"
	KeyEscape    Key = "Escape"
)
