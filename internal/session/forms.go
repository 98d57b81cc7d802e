package session

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"teamup/internal/city"
)

var (
	ErrNotAuthenticated = errors.New("login required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrCityRequired     = errors.New("please select a city")
	ErrCityUnsupported  = errors.New("this city is not supported")
	ErrEmailInvalid     = errors.New("a valid email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrNameRequired     = errors.New("first and last name are required")
	ErrBirthYearInvalid = errors.New("birth year is invalid")
)

// LoginForm is the login page input.
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// RegisterForm is the sign-up page input. Interests is a comma-separated
// list.
type RegisterForm struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"eqfield=Password"`
	FirstName       string `validate:"required"`
	LastName        string `validate:"required"`
	Pseudo          string
	City            string `validate:"required,supported_city"`
	BirthYear       int    `validate:"gte=1900,lte=2100"`
	Interests       string
}

// ProfileForm is the profile page input. Interests is a comma-separated
// list.
type ProfileForm struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Pseudo    string
	City      string `validate:"required,supported_city"`
	BirthYear int    `validate:"gte=1900,lte=2100"`
	Interests string
}

type fieldRule struct {
	field string
	tag   string
	err   error
}

// rules lists form failures in the order they are reported; only the
// first matching one is shown.
var rules = []fieldRule{
	{"Email", "required", ErrEmailInvalid},
	{"Email", "email", ErrEmailInvalid},
	{"Password", "required", ErrPasswordRequired},
	{"ConfirmPassword", "eqfield", ErrPasswordMismatch},
	{"Password", "min", ErrPasswordTooShort},
	{"FirstName", "required", ErrNameRequired},
	{"LastName", "required", ErrNameRequired},
	{"City", "required", ErrCityRequired},
	{"City", "supported_city", ErrCityUnsupported},
	{"BirthYear", "gte", ErrBirthYearInvalid},
	{"BirthYear", "lte", ErrBirthYearInvalid},
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("supported_city", func(fl validator.FieldLevel) bool {
		_, ok := city.Lookup(fl.Field().String())
		return ok
	})
	return v
}

// checkForm validates form and maps the result to one of the sentinel
// errors above.
func checkForm(v *validator.Validate, form any) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()+"/"+fe.Tag()] = true
	}
	for _, r := range rules {
		if failed[r.field+"/"+r.tag] {
			return r.err
		}
	}
	return verrs
}
