package user

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateEmail checks address syntax.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return fmt.Errorf("email %w", err)
	}
	return nil
}

func ValidateName(name string) error {
	if err := validate.Var(name, fmt.Sprintf("required,min=%d,max=%d", NameMinLen, NameMaxLen)); err != nil {
		return fmt.Errorf("name %w", err)
	}
	return nil
}

func ValidatePassword(password string) error {
	if err := validate.Var(password, fmt.Sprintf("required,min=%d,max=%d", PasswordMinLen, PasswordMaxLen)); err != nil {
		return fmt.Errorf("password %w", err)
	}
	return nil
}

func ValidateRoleName(name string) error {
	if err := validate.Var(name, "required,min=1,max=100,printascii"); err != nil {
		return fmt.Errorf("role name %w", err)
	}
	return nil
}

// Validate checks the fields the patch sets.
func (p Patch) Validate() error {
	if p.Name != nil {
		if err := ValidateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Email != nil {
		if err := ValidateEmail(*p.Email); err != nil {
			return err
		}
	}
	return nil
}
