package session

import (
	"context"
	"strings"

	"github.com/utafrali/storefront/internal/commerce"
	"github.com/utafrali/storefront/pkg/validator"
)

// SignUpInput is a new account's profile.
type SignUpInput struct {
	FirstName string `json:"firstName" validate:"required,person_name"`
	LastName  string `json:"lastName" validate:"required,person_name"`
	Age       int    `json:"age" validate:"gte=0,lte=120"`
	Email     string `json:"email" validate:"required,email_addr"`
	Password  string `json:"password" validate:"required,password"`
	Address   string `json:"address" validate:"required,address"`
	Phone     string `json:"phone" validate:"required,phone_ge"`
	Zipcode   string `json:"zipcode" validate:"required,zipcode"`
	Avatar    string `json:"avatar" validate:"omitempty,http_url"`
	Gender    string `json:"gender" validate:"required"`
}

// normalize trims every field and upper-cases the gender.
func (in SignUpInput) normalize() SignUpInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Zipcode = strings.TrimSpace(in.Zipcode)
	in.Avatar = strings.TrimSpace(in.Avatar)
	in.Gender = strings.ToUpper(strings.TrimSpace(in.Gender))
	return in
}

// SignUp validates the profile locally and registers it. Nothing is sent
// unless every field passes. The stock avatar is used when none is given and
// is not itself validated.
func (s *Store) SignUp(ctx context.Context, in SignUpInput) error {
	in = in.normalize()

	check := in
	if check.Avatar == DefaultAvatar {
		check.Avatar = ""
	}
	if err := validator.Validate(check); err != nil {
		return err
	}
	if in.Avatar == "" {
		in.Avatar = DefaultAvatar
	}

	if err := s.auth.SignUp(ctx, commerce.SignUpRequest{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Age:       in.Age,
		Email:     in.Email,
		Password:  in.Password,
		Address:   in.Address,
		Phone:     in.Phone,
		Zipcode:   in.Zipcode,
		Avatar:    in.Avatar,
		Gender:    in.Gender,
	}); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "account registered")
	return nil
}
