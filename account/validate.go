package account

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	fullnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	phonePattern    = regexp.MustCompile(`^[0-9]{8,14}$`)
	phone2Pattern   = regexp.MustCompile(`^\+?[0-9]{8,14}$`)
)

func noSpaces(value any) error {
	s, _ := value.(string)
	if strings.Contains(s, " ") {
		return validation.NewError("validation_no_spaces", "space characters are not allowed")
	}
	return nil
}

// Validate checks the registration payload. Username uniqueness is a store
// concern and is enforced by the service, not here.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.TxtUser, validation.Required.Error("username required")),
		validation.Field(&in.TxtPass,
			validation.Required.Error("password required"),
			validation.Length(6, 0).Error("password must have at least 6 characters"),
			validation.By(noSpaces),
		),
		validation.Field(&in.TxtPassRepeat,
			validation.Required.Error("repeat password required"),
			validation.In(in.TxtPass).Error("repeat password must be same with password"),
		),
		validation.Field(&in.TxtName,
			validation.Required.Error("fullname required"),
			validation.Length(2, 0).Error("fullname must have at least 2 characters"),
			validation.Match(fullnamePattern).Error("special characters are not allowed or invalid fullname"),
		),
		validation.Field(&in.TxtPhone,
			validation.Match(phonePattern).Error("phone must be a string of digits with 8 to 14 characters"),
		),
		validation.Field(&in.TxtPhone2,
			validation.Match(phone2Pattern).Error("phone 2 must be a string of digits (leading + allowed) with 8 to 14 characters"),
		),
	)
}

// Validate checks the credential payload.
func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required.Error("username required")),
		validation.Field(&in.Password, validation.Required.Error("password required")),
	)
}

// Validate checks the existence-check payload.
func (in CheckInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required.Error("username required")),
	)
}

// Validate checks the profile-update payload.
func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.TxtUser, validation.Required.Error("username required")),
		validation.Field(&in.TxtName,
			validation.Required.Error("fullname required"),
			validation.Length(2, 0).Error("fullname must have at least 2 characters"),
			validation.Match(fullnamePattern).Error("special characters are not allowed or invalid fullname"),
		),
		validation.Field(&in.TxtPhone,
			validation.Required.Error("phone required"),
			validation.Match(phonePattern).Error("phone must be a string of digits with 8 to 14 characters"),
		),
		validation.Field(&in.TxtPhone2,
			validation.Match(phone2Pattern).Error("phone 2 must be a string of digits (leading + allowed) with 8 to 14 characters"),
		),
	)
}
