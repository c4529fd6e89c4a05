package errors

import (
	"errors"
	"maps"
)

// Wrap wraps an error with additional context, creating a KilnError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *KilnError {
	if err == nil {
		return nil
	}

	// Keep the inner error's location and context so the chain stays useful
	var ke *KilnError
	if errors.As(err, &ke) {
		return &KilnError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ke,
			Context:     maps.Clone(ke.Context),
			Component:   ke.Component,
			FilePath:    ke.FilePath,
			Recoverable: ke.Recoverable,
		}
	}

	return &KilnError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeConfig,
	}
}

// WrapConfig wraps an error as a recoverable configuration error
func WrapConfig(err error, code, message string) *KilnError {
	ke := Wrap(err, ErrorTypeConfig, code, message)
	if ke != nil {
		ke.Recoverable = true
	}
	return ke
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *KilnError {
	ke := Wrap(err, ErrorTypeIO, code, message)
	if ke != nil {
		ke.Recoverable = false
	}
	return ke
}

// GetErrorContext extracts context information from a KilnError chain.
// Outer errors win on key conflicts.
func GetErrorContext(err error) map[string]interface{} {
	context := make(map[string]interface{})

	for err != nil {
		var ke *KilnError
		if !errors.As(err, &ke) {
			break
		}
		for k, v := range ke.Context {
			if _, exists := context[k]; !exists {
				context[k] = v
			}
		}
		if ke.Component != "" {
			if _, exists := context["component"]; !exists {
				context["component"] = ke.Component
			}
		}
		if ke.FilePath != "" {
			if _, exists := context["file"]; !exists {
				context["file"] = ke.FilePath
			}
		}
		err = ke.Cause
	}

	return context
}
