package model

import (
	"strings"
	"time"
)

// Profile is the aggregate shown on the profile screen: one profiles row plus
// the names from its skills and interests rows.
//
// The scalar text fields are nullable in the store, so they are pointers here:
// nil renders as the empty-state placeholder, "" is an explicit blank.
type Profile struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name"`
	Role      *string   `json:"role"`
	Location  *string   `json:"location"`
	Domain    *string   `json:"domain"`
	AvatarURL *string   `json:"avatar_url"`
	Email     string    `json:"email"`
	Skills    []string  `json:"skills"`
	Interests []string  `json:"interests"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfilePatch is a partial profile submitted by an edit.
//
// Every field is optional. For the two tag collections the pointer matters:
//
//	"skills" absent or null → Skills == nil            → existing skills untouched
//	"skills": []            → Skills points to empty   → all skills cleared
//	"skills": ["Go"]        → Skills points to ["Go"]  → replaced by ["Go"]
//
// ID, Email and UpdatedAt are deliberately missing: they come from the session
// and the clock, never from the caller.
//
// The validate tags are checked by the HTTP layer before a patch reaches the
// service.
type ProfilePatch struct {
	Name      *string   `json:"name,omitempty" validate:"omitempty,max=100"`
	Role      *string   `json:"role,omitempty" validate:"omitempty,max=100"`
	Location  *string   `json:"location,omitempty" validate:"omitempty,max=100"`
	Domain    *string   `json:"domain,omitempty" validate:"omitempty,max=100"`
	AvatarURL *string   `json:"avatar_url,omitempty" validate:"omitempty,max=2048"`
	Skills    *[]string `json:"skills,omitempty" validate:"omitempty,max=50,dive,max=50"`
	Interests *[]string `json:"interests,omitempty" validate:"omitempty,max=50,dive,max=50"`
}

// TagKind names one of the two child collections of a profile.
// The value is also the table name.
type TagKind string

const (
	TagSkills    TagKind = "skills"
	TagInterests TagKind = "interests"
)

// Valid reports whether k is one of the known collections.
func (k TagKind) Valid() bool {
	return k == TagSkills || k == TagInterests
}

// NormalizeTags trims every tag, drops blanks and removes duplicates while
// keeping the first occurrence's position. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// StringPtr returns a pointer to s. Handy for building patches.
func StringPtr(s string) *string {
	return &s
}

// TagsPtr returns a pointer to tags, turning nil into an empty, non-nil slice
// so that the result always means "replace".
func TagsPtr(tags ...string) *[]string {
	if tags == nil {
		tags = []string{}
	}
	return &tags
}
