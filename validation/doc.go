// Package validation checks tool arguments and configuration.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their json names:
//
//	type ListArgs struct {
//	    Limit *int `json:"limit" validate:"omitempty,gte=0"`
//	}
//	err := validation.Validate(args)
//
// Programmatic validation collects errors before failing once:
//
//	err := validation.New().
//	    Required("binary", cfg.Binary).
//	    OneOf("transport", cfg.Transport, []string{"stdio", "http"}).
//	    Err()
package validation
