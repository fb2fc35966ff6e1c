package usecase

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/gatekeeper/internal/validation"
)

func emailRules(field *string) *validation.FieldRules {
	return validation.Field(field,
		validation.Required.Error("email is required"),
		appValidation.NotBlank,
		appValidation.Email,
		validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
	)
}

func nameRules(field *string, label string) *validation.FieldRules {
	return validation.Field(field,
		validation.Required.Error(label+" is required"),
		appValidation.NotBlank,
		validation.Length(1, 150).Error(label+" must be at most 150 characters"),
	)
}

func optionalNameRules(field **string, label string) *validation.FieldRules {
	return validation.Field(field,
		validation.NilOrNotEmpty.Error(label+" must not be empty"),
		appValidation.NotBlank,
		validation.Length(1, 150).Error(label+" must be at most 150 characters"),
	)
}

func passwordRules(field *string, label string) *validation.FieldRules {
	return validation.Field(field,
		validation.Required.Error(label+" is required"),
		appValidation.DefaultPasswordPolicy,
	)
}

func (i *RegisterInput) validate() error {
	err := validation.ValidateStruct(i,
		emailRules(&i.Email),
		nameRules(&i.FirstName, "first_name"),
		nameRules(&i.LastName, "last_name"),
		passwordRules(&i.Password, "password"),
		validation.Field(&i.PasswordConfirm,
			validation.Required.Error("password_confirm is required"),
			appValidation.Matches(i.Password, "passwords do not match"),
		),
	)
	return appValidation.WrapValidationError(err)
}

func (i *CreateUserInput) validate() error {
	err := validation.ValidateStruct(i,
		emailRules(&i.Email),
		nameRules(&i.FirstName, "first_name"),
		nameRules(&i.LastName, "last_name"),
		passwordRules(&i.Password, "password"),
	)
	return appValidation.WrapValidationError(err)
}

func (i *UpdateProfileInput) validate() error {
	err := validation.ValidateStruct(i,
		optionalNameRules(&i.FirstName, "first_name"),
		optionalNameRules(&i.LastName, "last_name"),
	)
	return appValidation.WrapValidationError(err)
}

func (i *UpdateUserInput) validate() error {
	err := validation.ValidateStruct(i,
		optionalNameRules(&i.FirstName, "first_name"),
		optionalNameRules(&i.LastName, "last_name"),
	)
	return appValidation.WrapValidationError(err)
}

func (i *ChangePasswordInput) validate() error {
	err := validation.ValidateStruct(i,
		validation.Field(&i.OldPassword, validation.Required.Error("old_password is required")),
		passwordRules(&i.NewPassword, "new_password"),
		validation.Field(&i.NewPasswordConfirm,
			validation.Required.Error("new_password_confirm is required"),
			appValidation.Matches(i.NewPassword, "passwords do not match"),
		),
	)
	return appValidation.WrapValidationError(err)
}
