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

type EmergencyValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewEmergencyValidator(log *logger.Logger) *EmergencyValidator {
	v := validator.New()

	if err := v.RegisterValidation("bed_category", validateBedCategory); err != nil {
		log.Fatal("Failed to register 'bed_category' validator", "error", err)
	}
	if err := v.RegisterValidation("triage_priority", validateTriagePriority); err != nil {
		log.Fatal("Failed to register 'triage_priority' validator", "error", err)
	}
	if err := v.RegisterValidation("requester_phone", validateRequesterPhone); err != nil {
		log.Fatal("Failed to register 'requester_phone' validator", "error", err)
	}

	return &EmergencyValidator{
		validate: v,
		logger:   log,
	}
}

func validateBedCategory(fl validator.FieldLevel) bool {
	return model.ValidCategory(fl.Field().String())
}

func validateTriagePriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case model.PriorityCritical, model.PriorityHigh, model.PriorityMedium:
		return true
	}
	return false
}

func validateRequesterPhone(fl validator.FieldLevel) bool {
	return sanitizer.NormalizePhone(fl.Field().String()) != ""
}

func (v *EmergencyValidator) Validate(admission *model.EmergencyAdmission) error {
	if err := v.validate.Struct(admission); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateStatus checks the target status is a known one. Ordering against
// the current status is enforced by the service.
func (v *EmergencyValidator) ValidateStatus(status string) error {
	if _, ok := model.EmergencyStatusRank(status); !ok {
		return ValidationErrors{
			ValidationError{
				Field:   "Status",
				Message: "status must be one of: pending, assigned, admitted, treated, discharged",
			},
		}
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
		case "bed_category":
			message = fmt.Sprintf("%s must be one of: general, icu, private", err.Field())
		case "triage_priority":
			message = fmt.Sprintf("%s must be one of: critical, high, medium", err.Field())
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
