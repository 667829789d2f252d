// Package models defines the request schemas: the MethodRequest envelope and
// the two method-specific argument schemas. A schema instance is created
// fresh per request and populated field by field; each assignment validates
// immediately and a rejected assignment leaves the field unset.
package models

import (
	"time"

	"scoring/internal/validate"
)

// Gender values accepted by the score arguments.
const (
	GenderUnknown int64 = 0
	GenderMale    int64 = 1
	GenderFemale  int64 = 2
)

// GenderName returns the label for a gender value, or "" if out of range.
func GenderName(g int64) string {
	switch g {
	case GenderUnknown:
		return "unknown"
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return ""
	}
}

// MaxAgeYears bounds the birthday field of a score request.
const MaxAgeYears = 70

// Schemas bundles the field descriptors for all three request schemas.
// Descriptors are stateless, so one Schemas value serves every request.
type Schemas struct {
	account   validate.String
	login     validate.String
	token     validate.String
	arguments validate.Arguments
	method    validate.String

	firstName validate.String
	lastName  validate.String
	email     validate.Email
	phone     validate.Phone
	birthday  validate.BirthDate
	gender    validate.Gender

	clientIDs validate.ClientIDs
	date      validate.Date
}

// NewSchemas builds the descriptor set. The clock is injected so the
// birthday age bound is deterministic under test; nil means time.Now.
func NewSchemas(now func() time.Time) *Schemas {
	return &Schemas{
		account:   validate.String{Name: "account", Required: false, Nullable: true},
		login:     validate.String{Name: "login", Required: true, Nullable: true},
		token:     validate.String{Name: "token", Required: true, Nullable: true},
		arguments: validate.Arguments{Name: "arguments", Required: true, Nullable: true},
		method:    validate.String{Name: "method", Required: true, Nullable: false},

		firstName: validate.String{Name: "first_name", Nullable: true},
		lastName:  validate.String{Name: "last_name", Nullable: true},
		email:     validate.Email{String: validate.String{Name: "email", Nullable: true}},
		phone:     validate.Phone{String: validate.String{Name: "phone", Nullable: true}},
		birthday: validate.BirthDate{
			Date:        validate.Date{String: validate.String{Name: "birthday", Nullable: true}},
			MaxAgeYears: MaxAgeYears,
			Now:         now,
		},
		gender: validate.Gender{Integer: validate.Integer{Name: "gender", Nullable: true}},

		clientIDs: validate.ClientIDs{Name: "client_ids", Required: true},
		date:      validate.Date{String: validate.String{Name: "date", Nullable: true}},
	}
}

// MethodRequest is the outer envelope carrying identity fields plus the
// opaque arguments map. The inner schema interpreting Arguments is chosen by
// the handler serving the method, not by the envelope.
type MethodRequest struct {
	Account   *string
	Login     *string
	Token     *string
	Arguments map[string]any
	Method    *string
}

func (r *MethodRequest) trySetAccount(f validate.String, raw any) error {
	v, err := f.Validate(raw)
	r.Account = v
	return err
}

func (r *MethodRequest) trySetLogin(f validate.String, raw any) error {
	v, err := f.Validate(raw)
	r.Login = v
	return err
}

func (r *MethodRequest) trySetToken(f validate.String, raw any) error {
	v, err := f.Validate(raw)
	r.Token = v
	return err
}

func (r *MethodRequest) trySetArguments(f validate.Arguments, raw any) error {
	v, err := f.Validate(raw)
	r.Arguments = v
	return err
}

func (r *MethodRequest) trySetMethod(f validate.String, raw any) error {
	v, err := f.Validate(raw)
	r.Method = v
	return err
}

// IsAdmin reports whether the envelope identifies the admin account.
func (r *MethodRequest) IsAdmin(adminLogin string) bool {
	return r.Login != nil && *r.Login == adminLogin
}

// AccountValue returns the account, or "" when absent.
func (r *MethodRequest) AccountValue() string { return deref(r.Account) }

// LoginValue returns the login, or "" when absent.
func (r *MethodRequest) LoginValue() string { return deref(r.Login) }

// TokenValue returns the token, or "" when absent.
func (r *MethodRequest) TokenValue() string { return deref(r.Token) }

// BindMethodRequest validates the decoded body against the envelope schema,
// one field at a time in declaration order, stopping at the first failure.
func (s *Schemas) BindMethodRequest(body map[string]any) (*MethodRequest, error) {
	r := &MethodRequest{}
	if err := r.trySetAccount(s.account, body["account"]); err != nil {
		return nil, err
	}
	if err := r.trySetLogin(s.login, body["login"]); err != nil {
		return nil, err
	}
	if err := r.trySetToken(s.token, body["token"]); err != nil {
		return nil, err
	}
	if err := r.trySetArguments(s.arguments, body["arguments"]); err != nil {
		return nil, err
	}
	if err := r.trySetMethod(s.method, body["method"]); err != nil {
		return nil, err
	}
	return r, nil
}

// OnlineScoreRequest carries the scoring signals. Every field is optional
// and nullable; the scoring formula decides what the combination is worth.
type OnlineScoreRequest struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Birthday  *string // canonical YYYY-MM-DD
	Gender    *int64
}

func (r *OnlineScoreRequest) trySetFirstName(f validate.String, raw any) error {
	v, err := f.Validate(raw)
	r.FirstName = v
	return err
}

func (r *OnlineScoreRequest) trySetLastName(f validate.String, raw any) error {
	v, err := f.Validate(raw)
	r.LastName = v
	return err
}

func (r *OnlineScoreRequest) trySetEmail(f validate.Email, raw any) error {
	v, err := f.Validate(raw)
	r.Email = v
	return err
}

func (r *OnlineScoreRequest) trySetPhone(f validate.Phone, raw any) error {
	v, err := f.Validate(raw)
	r.Phone = v
	return err
}

// trySetBirthday keeps the empty-string sentinel the validator returns on an
// age failure, so the field is observably cleared rather than holding the
// parsed date.
func (r *OnlineScoreRequest) trySetBirthday(f validate.BirthDate, raw any) error {
	v, err := f.Validate(raw)
	r.Birthday = v
	return err
}

func (r *OnlineScoreRequest) trySetGender(f validate.Gender, raw any) error {
	v, err := f.Validate(raw)
	r.Gender = v
	return err
}

// PresentFields lists the argument names whose bound value is present and
// not the empty string, in schema order. Handlers record it so callers can
// audit which signals the score was computed from.
func (r *OnlineScoreRequest) PresentFields() []string {
	var has []string
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"first_name", r.FirstName},
		{"last_name", r.LastName},
		{"email", r.Email},
		{"phone", r.Phone},
		{"birthday", r.Birthday},
	} {
		if f.value != nil && *f.value != "" {
			has = append(has, f.name)
		}
	}
	if r.Gender != nil {
		has = append(has, "gender")
	}
	return has
}

// BindOnlineScore validates the arguments map against the score schema.
func (s *Schemas) BindOnlineScore(args map[string]any) (*OnlineScoreRequest, error) {
	r := &OnlineScoreRequest{}
	if err := r.trySetFirstName(s.firstName, args["first_name"]); err != nil {
		return nil, err
	}
	if err := r.trySetLastName(s.lastName, args["last_name"]); err != nil {
		return nil, err
	}
	if err := r.trySetEmail(s.email, args["email"]); err != nil {
		return nil, err
	}
	if err := r.trySetPhone(s.phone, args["phone"]); err != nil {
		return nil, err
	}
	if err := r.trySetBirthday(s.birthday, args["birthday"]); err != nil {
		return nil, err
	}
	if err := r.trySetGender(s.gender, args["gender"]); err != nil {
		return nil, err
	}
	return r, nil
}

// ClientsInterestsRequest carries the interests lookup arguments.
type ClientsInterestsRequest struct {
	ClientIDs []int64
	Date      *string // canonical YYYY-MM-DD
}

func (r *ClientsInterestsRequest) trySetClientIDs(f validate.ClientIDs, raw any) error {
	v, err := f.Validate(raw)
	r.ClientIDs = v
	return err
}

func (r *ClientsInterestsRequest) trySetDate(f validate.Date, raw any) error {
	v, err := f.Validate(raw)
	r.Date = v
	return err
}

// BindClientsInterests validates the arguments map against the interests
// schema.
func (s *Schemas) BindClientsInterests(args map[string]any) (*ClientsInterestsRequest, error) {
	r := &ClientsInterestsRequest{}
	if err := r.trySetClientIDs(s.clientIDs, args["client_ids"]); err != nil {
		return nil, err
	}
	if err := r.trySetDate(s.date, args["date"]); err != nil {
		return nil, err
	}
	return r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
