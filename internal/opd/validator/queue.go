package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"wardq/pkg/logger"
	"wardq/pkg/model"
	"wardq/pkg/sanitizer"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type QueueValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewQueueValidator(log *logger.Logger) *QueueValidator {
	v := validator.New()

	if err := v.RegisterValidation("requester_phone", validateRequesterPhone); err != nil {
		log.Fatal("Failed to register 'requester_phone' validator", "error", err)
	}

	return &QueueValidator{
		validate: v,
		logger:   log,
	}
}

func validateRequesterPhone(fl validator.FieldLevel) bool {
	return sanitizer.NormalizePhone(fl.Field().String()) != ""
}

func (v *QueueValidator) Validate(entry *model.QueueEntry) error {
	if err := v.validate.Struct(entry); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "requester_phone":
			message = fmt.Sprintf("%s must be a valid phone number", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
