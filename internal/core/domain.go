package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	CategoryTransport     Category = "Transport"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryFood          Category = "Food"
	CategoryHealthcare    Category = "Healthcare"
	CategoryShopping      Category = "Shopping"
	CategoryOther         Category = "Other"
)

// UncategorizedLabel is shown when a transaction's category was deleted
// after the transaction was recorded.
const UncategorizedLabel = "Uncategorized"

type (
	// Kind distinguishes money coming in from money going out.
	Kind string

	// Category is a closed set of spending categories. Transactions may
	// carry an empty Category when the referenced category was removed.
	Category string

	Money struct {
		Cents int64
	}

	// MemberRef is a resolved family member assigned to a transaction.
	// Members are pure data tags owned by a user; they have no account.
	MemberRef struct {
		ID   string
		Name string
	}

	// Transaction is a single income or expense entry belonging to a user.
	// Members lists the family members the user assigned to it; an empty
	// list makes the transaction personal.
	Transaction struct {
		ID               string
		UserID           string
		Amount           Money
		Kind             Kind
		Category         Category // empty when uncategorized
		OccurredAt       time.Time
		CreatedAt        time.Time
		UserParticipates bool
		Members          []MemberRef
	}

	// Member is a family member managed by a user for expense attribution.
	Member struct {
		ID           string
		UserID       string
		Name         string
		Relationship string
		JoinedAt     time.Time
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyRelationship = errors.New("empty relationship")
)

// AllCategories returns the predefined categories in display order.
func AllCategories() []Category {
	return []Category{
		CategoryTransport,
		CategoryUtilities,
		CategoryEntertainment,
		CategoryFood,
		CategoryHealthcare,
		CategoryShopping,
		CategoryOther,
	}
}

// ParseCategory validates a category name against the closed set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	for _, known := range AllCategories() {
		if c == known {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// ParseKind validates a transaction kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidKind
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Kind != Income && t.Kind != Expense {
		return ErrInvalidKind
	}
	if t.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	// Category is optional (it may have been deleted since creation),
	// but a non-empty one must be in the closed set.
	if t.Category != "" {
		if _, err := ParseCategory(string(t.Category)); err != nil {
			return err
		}
	}
	return nil
}

// CategoryLabel returns the display name of the category, or the
// uncategorized fallback when the category reference is absent.
func (t Transaction) CategoryLabel() string {
	if t.Category == "" {
		return UncategorizedLabel
	}
	return string(t.Category)
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if len(m.Name) > 255 {
		return errors.New("name too long (max 255 characters)")
	}
	if strings.TrimSpace(m.Relationship) == "" {
		return ErrEmptyRelationship
	}
	return nil
}
