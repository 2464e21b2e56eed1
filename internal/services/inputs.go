package services

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/isdelr/contacts-api/internal/auth"
	"github.com/isdelr/contacts-api/internal/common"
	"github.com/isdelr/contacts-api/internal/models"
)

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterInput) Validate() error {
	return common.NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 30)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(maxBytes(auth.MaxPasswordBytes))),
	))
}

// maxBytes limits the encoded length of a string. Length counts runes.
func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > n {
			return fmt.Errorf("must be at most %d bytes", n)
		}
		return nil
	}
}

// LoginInput is the payload of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginInput) Validate() error {
	return common.NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	))
}

// EmailInput carries a single email, used by the verification resend flow.
type EmailInput struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r EmailInput) Validate() error {
	return common.NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("missing required field email"), is.Email),
	))
}

// SubscriptionInput is the payload of a subscription change.
type SubscriptionInput struct {
	Subscription models.Subscription `json:"subscription"`
}

// Validate will run validation rules
func (r SubscriptionInput) Validate() error {
	allowed := make([]interface{}, len(models.Subscriptions))
	names := make([]string, len(models.Subscriptions))
	for i, s := range models.Subscriptions {
		allowed[i] = s
		names[i] = string(s)
	}
	return common.NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Subscription,
			validation.Required,
			validation.In(allowed...).Error("must be one of "+strings.Join(names, ", ")),
		),
	))
}

// ContactInput is the payload for creating a contact.
type ContactInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Favorite bool   `json:"favorite"`
}

// Validate will run validation rules
func (r ContactInput) Validate() error {
	return common.NewValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 30)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.Required),
	))
}

// validateContactPatch checks the fields present in a partial update.
func validateContactPatch(p models.ContactPatch) error {
	if p.Empty() {
		return common.NewValidationError(errors.New("missing fields"))
	}
	errs := validation.Errors{}
	if p.Name != nil {
		errs["name"] = validation.Validate(*p.Name, validation.Required, validation.Length(2, 30))
	}
	if p.Email != nil {
		errs["email"] = validation.Validate(*p.Email, validation.Required, is.Email)
	}
	if p.Phone != nil {
		errs["phone"] = validation.Validate(*p.Phone, validation.Required)
	}
	return common.NewValidationError(errs.Filter())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
