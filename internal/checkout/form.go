package checkout

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is the shipping and payment form submitted at checkout.
type Form struct {
	Name       string `json:"name" validate:"notblank,max=255"`
	Email      string `json:"email" validate:"notblank,max=255,simple_email"`
	Address    string `json:"address" validate:"notblank,max=512"`
	City       string `json:"city" validate:"notblank,max=128"`
	PostalCode string `json:"postalCode" validate:"notblank,postal_code5"`
	CardNumber string `json:"cardNumber" validate:"notblank,card_number16"`
	Expiry     string `json:"expiry" validate:"notblank,card_expiry"`
	CVC        string `json:"cvc" validate:"notblank,card_cvc"`
}

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	postalPattern = regexp.MustCompile(`^\d{5}$`)
	cardPattern   = regexp.MustCompile(`^\d{16}$`)
	expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvcPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

var messages = map[string]string{
	"notblank":      "%s is required",
	"simple_email":  "Please enter a valid email address",
	"postal_code5":  "Postal code must be 5 digits",
	"card_number16": "Card number must be 16 digits",
	"card_expiry":   "Expiry date must be in MM/YY format",
	"card_cvc":      "CVC must be 3 or 4 digits",
	"max":           "%s must be at most %s characters",
}

var labels = map[string]string{
	"name":       "Name",
	"email":      "Email",
	"address":    "Address",
	"city":       "City",
	"postalCode": "Postal code",
	"cardNumber": "Card number",
	"expiry":     "Expiry date",
	"cvc":        "CVC",
}

// Validator checks checkout forms. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	must("simple_email", matches(emailPattern, strings.TrimSpace))
	must("postal_code5", matches(postalPattern, strings.TrimSpace))
	must("card_number16", matches(cardPattern, stripSpaces))
	must("card_expiry", matches(expiryPattern, strings.TrimSpace))
	must("card_cvc", matches(cvcPattern, strings.TrimSpace))

	return &Validator{v: v}
}

func matches(re *regexp.Regexp, normalize func(string) string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(normalize(fl.Field().String()))
	}
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Validate returns a field -> message map, or nil when the form is valid.
func (v *Validator) Validate(f Form) map[string]string {
	err := v.v.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": "Invalid checkout form"}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "%s is invalid"
		}
		if strings.Contains(msg, "%s") {
			msg = strings.Replace(msg, "%s", labels[field], 1)
			msg = strings.Replace(msg, "%s", fe.Param(), 1)
		}
		out[field] = msg
	}
	return out
}

// normalized trims every field and strips spaces from the card number.
func (f Form) normalized() Form {
	return Form{
		Name:       strings.TrimSpace(f.Name),
		Email:      strings.TrimSpace(f.Email),
		Address:    strings.TrimSpace(f.Address),
		City:       strings.TrimSpace(f.City),
		PostalCode: strings.TrimSpace(f.PostalCode),
		CardNumber: stripSpaces(f.CardNumber),
		Expiry:     strings.TrimSpace(f.Expiry),
		CVC:        strings.TrimSpace(f.CVC),
	}
}
