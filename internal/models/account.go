package models

import "time"

// RelationshipStatus is the self-declared relationship state shown on a profile.
type RelationshipStatus string

const (
	RelationshipUnset         RelationshipStatus = ""
	RelationshipSingle        RelationshipStatus = "single"
	RelationshipInRelation    RelationshipStatus = "in a relationship"
	RelationshipComplicated   RelationshipStatus = "it's complicated"
	RelationshipLookingForOne RelationshipStatus = "looking for one"
)

// Valid reports whether s is one of the enumerated statuses (or unset).
func (s RelationshipStatus) Valid() bool {
	switch s {
	case RelationshipUnset, RelationshipSingle, RelationshipInRelation, RelationshipComplicated, RelationshipLookingForOne:
		return true
	}
	return false
}

// Account is a registered identity together with its side of the follow graph.
type Account struct {
	ID                  string
	Name                string
	Username            string
	Email               string
	Phone               string
	PasswordHash        string
	Bio                 string
	RelationshipStatus  RelationshipStatus
	Verified            bool
	VerificationToken   string
	VerificationExpires time.Time
	Followers           []string
	Following           []string
	Posts               []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsFollowing reports whether the account follows id.
func (a Account) IsFollowing(id string) bool {
	return containsID(a.Following, id)
}

// IsFollowedBy reports whether id appears in the account's followers.
func (a Account) IsFollowedBy(id string) bool {
	return containsID(a.Followers, id)
}

// RequiresVerification reports whether login must be refused until the email is confirmed.
func (a Account) RequiresVerification() bool {
	return a.Email != "" && !a.Verified
}

// Clone returns a deep copy so callers cannot mutate shared slices.
func (a Account) Clone() Account {
	a.Followers = cloneStrings(a.Followers)
	a.Following = cloneStrings(a.Following)
	a.Posts = cloneStrings(a.Posts)
	return a
}
