package domain

import (
	"fmt"
	"strings"
)

// Category is the kind of registered entity.
type Category string

const (
	CategoryBuilder Category = "builder"
	CategoryProject Category = "project"
	CategoryAgent   Category = "agent"
)

// ParseCategory parses a category; empty input defaults to builder.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CategoryBuilder, nil
	case CategoryBuilder, CategoryProject, CategoryAgent:
		return c, nil
	default:
		return "", fmt.Errorf("invalid registration category %q: must be builder, project or agent", s)
	}
}

func (c Category) String() string {
	return string(c)
}

// Status is the stored verification outcome of a registration.
type Status string

const (
	StatusVerified Status = "verified"
	StatusFailed   Status = "failed"
	StatusPending  Status = "pending"
)

func (s Status) String() string {
	return string(s)
}

// IsSettled reports whether the status is a confirmed-good outcome.
func (s Status) IsSettled() bool {
	return s == StatusVerified
}

// Method records how an outcome was reached. MethodAPI tags results produced
// by the service itself without consulting any source, such as input rejections.
type Method string

const (
	MethodAPI     Method = "api"
	MethodPartner Method = "partner"
	MethodManual  Method = "manual"
	MethodCached  Method = "cached"
)

func (m Method) String() string {
	return string(m)
}
