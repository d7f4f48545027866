// Package validation checks tool arguments and configuration with struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/readwise-mcp/internal/readwise"
)

var (
	defaultService     *Service
	defaultServiceOnce sync.Once
)

// Service wraps a validator that reports fields by their JSON or TOML name.
type Service struct {
	validate *validator.Validate
}

// NewService creates a validation service.
func NewService() *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return &Service{validate: v}
}

// Default returns a shared validation service.
func Default() *Service {
	defaultServiceOnce.Do(func() {
		defaultService = NewService()
	})
	return defaultService
}

// Struct validates s and converts the first failure into a *readwise.ValidationError.
func (s *Service) Struct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &readwise.ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	return &readwise.ValidationError{
		Field:   fieldPath(fe),
		Message: describe(fe),
	}
}

// fieldName prefers the json tag, then the toml tag, then the Go name.
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "toml"} {
		name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is not set", lowerFirst(fe.Param()))
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at most %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
