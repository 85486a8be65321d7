// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps the validator library in a thread-safe singleton with
// human-readable error translation, used to check decoded configuration
// structs (each Backend and the Admin block) after koanf has unmarshaled
// them and before the process starts listening.
//
// # Quick Start
//
//	type Backend struct {
//	    Address string `validate:"required,hostname_port"`
//	    Weight  int    `validate:"gte=1"`
//	}
//
//	if verr := validation.ValidateStruct(&backend); verr != nil {
//	    return verr
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: field must not be empty
//   - min=n / max=n: length bounds
//   - hostname_port: "host:port" syntax
//
// Numeric validations:
//   - gte=n / lte=n / gt=n / lt=n: numeric bounds
//
// Enum validations:
//   - oneof=a b c: must be one of the specified values
//
// # Error Types
//
// ValidationError represents a single field validation failure (Field, Tag,
// Param, Value, Error). RequestValidationError aggregates multiple field
// errors and can be rendered as a plain combined message or converted with
// ToAPIError into a code/message/details triple.
//
// # Thread Safety
//
// The singleton validator is initialized once and is safe for concurrent use.
package validation
