package domain

// Visibility controls who may read a knowledge space.
type Visibility string

// Space visibilities.
const (
	// VisibilityPublic spaces are readable by every user.
	VisibilityPublic Visibility = "public"

	// VisibilityPrivate spaces are readable only by members.
	VisibilityPrivate Visibility = "private"
)

// IsValid returns true if the visibility is recognised.
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Space is a permission boundary grouping documents and users. Membership
// management lives in the external access layer; the core only consumes
// the resolved visible-space set per user.
type Space struct {
	// ID is the unique identifier for the space.
	ID string

	// Name is the display name.
	Name string

	// Visibility is public or private.
	Visibility Visibility

	// Members holds user IDs with read access to a private space.
	Members []string
}

// Readable reports whether the given user may read this space.
func (s Space) Readable(userID string) bool {
	if s.Visibility == VisibilityPublic {
		return true
	}
	for _, m := range s.Members {
		if m == userID {
			return true
		}
	}
	return false
}
