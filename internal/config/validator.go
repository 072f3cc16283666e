package config

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the process-wide validator instance, built once
// on first use.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// GetValidator exposes the shared validator instance; Validate uses it and
// it is available to callers outside the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}
