package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/redmonkez12/accounts-api/internal/user"
)

// SuperuserInput is what create-superuser needs to create an account
type SuperuserInput struct {
	Email    string
	Name     string
	Password string
}

// Validate applies the registration rules to the input
func (in SuperuserInput) Validate() error {
	return user.ValidateRegistration(strings.TrimSpace(in.Email), in.Password, in.Name)
}

// RunSuperuserForm prompts for the fields missing from in
func RunSuperuserForm(in SuperuserInput) (SuperuserInput, error) {
	var confirm string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&in.Email).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("email is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Name").
				Description("Optional").
				Value(&in.Name),

			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&in.Password).
				Validate(func(s string) error {
					if len([]rune(s)) < user.MinPasswordLength {
						return errors.New("password is too short")
					}
					return nil
				}),

			huh.NewInput().
				Title("Password (again)").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != in.Password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return in, err
	}

	return in, nil
}
