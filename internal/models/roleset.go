package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
)

// RoleSet is a set of free-form role tags (e.g. "front_desk", "hygiene").
// It is stored as a comma-joined string at the persistence boundary; the
// delimiter never leaks into business logic.
type RoleSet map[string]struct{}

// ParseRoleSet builds a RoleSet from a comma-separated tag string. Tags are
// trimmed; empty and whitespace-only entries are dropped, so a string of
// blanks yields an empty (unrestricted) set.
func ParseRoleSet(s string) RoleSet {
	set := RoleSet{}
	for _, tag := range strings.Split(s, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		set[tag] = struct{}{}
	}
	return set
}

// NewRoleSet builds a RoleSet from individual tags, trimming each.
func NewRoleSet(tags ...string) RoleSet {
	set := RoleSet{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		set[tag] = struct{}{}
	}
	return set
}

// Contains reports exact, case-sensitive membership of a trimmed tag.
func (rs RoleSet) Contains(tag string) bool {
	_, ok := rs[strings.TrimSpace(tag)]
	return ok
}

// IsEmpty reports whether the set carries no tags. An empty assigned-roles
// set on a course means "open to all roles".
func (rs RoleSet) IsEmpty() bool {
	return len(rs) == 0
}

// Add inserts a tag and reports whether it was newly added.
func (rs RoleSet) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	if _, ok := rs[tag]; ok {
		return false
	}
	rs[tag] = struct{}{}
	return true
}

// Remove deletes a tag if present.
func (rs RoleSet) Remove(tag string) {
	delete(rs, strings.TrimSpace(tag))
}

// Tags returns the tags in sorted order for stable serialization.
func (rs RoleSet) Tags() []string {
	tags := make([]string, 0, len(rs))
	for tag := range rs {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (rs RoleSet) String() string {
	return strings.Join(rs.Tags(), ",")
}

// Value implements driver.Valuer, serializing to the legacy comma-joined form.
func (rs RoleSet) Value() (driver.Value, error) {
	return rs.String(), nil
}

// Scan implements sql.Scanner.
func (rs *RoleSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*rs = RoleSet{}
	case string:
		*rs = ParseRoleSet(v)
	case []byte:
		*rs = ParseRoleSet(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RoleSet", src)
	}
	return nil
}

// GormDataType tells gorm to store the set as text.
func (RoleSet) GormDataType() string {
	return "text"
}

// MarshalJSON renders the set as a JSON array of tags.
func (rs RoleSet) MarshalJSON() ([]byte, error) {
	tags := rs.Tags()
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = fmt.Sprintf("%q", tag)
	}
	return []byte("[" + strings.Join(parts, ",") + "]"), nil
}

// UnmarshalJSON accepts either a JSON array of tags or a legacy
// comma-joined string.
func (rs *RoleSet) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*rs = RoleSet{}
		return nil
	}
	if strings.HasPrefix(s, "\"") {
		unquoted := strings.Trim(s, "\"")
		*rs = ParseRoleSet(unquoted)
		return nil
	}
	s = strings.Trim(s, "[]")
	set := RoleSet{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, "\"")
		if part == "" {
			continue
		}
		set[part] = struct{}{}
	}
	*rs = set
	return nil
}
