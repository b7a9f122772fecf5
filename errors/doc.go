// Package errors provides structured error types for featuredecode.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the feature name, the byte offset into the serialized
// example when known, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindUnsupportedFieldKind).
//		Field("image/encoded").
//		Value(7).
//		Detail("unexpected feature kind %d", 7).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Malformed(offset, cause)
//	err := errors.EmptyField(errors.PhaseMaterialize, "labels")
//
// The sentinels ErrParse, ErrUnsupportedFieldKind and ErrEmptyField match any
// error of the same Kind regardless of phase:
//
//	if errors.Is(err, fderrors.ErrEmptyField) { ... }
package errors
