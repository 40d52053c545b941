package sessions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/jrsteele09/go-session-relay/internal/utils"
)

// SchemaError reports why a record failed to decode as a Session. It always
// unwraps to ErrSchemaViolation so callers can treat it as "no session".
type SchemaError struct {
	Field  string // JSON path of the offending field, empty for whole-record failures
	Reason string
	cause  error
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", apperrors.ErrSchemaViolation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", apperrors.ErrSchemaViolation, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() []error {
	if e.cause == nil {
		return []error{apperrors.ErrSchemaViolation}
	}
	return []error{apperrors.ErrSchemaViolation, e.cause}
}

// Wire shape of a session record. Pointers distinguish a missing field from
// an empty one; the validate tags are the required-field schema.
type wireSession struct {
	User         *wireUser   `json:"user" validate:"required"`
	Tokens       *wireTokens `json:"tokens" validate:"required"`
	AccessToken  *string     `json:"accessToken" validate:"required"`
	RefreshToken *string     `json:"refreshToken,omitempty"`
}

type wireUser struct {
	XUID         *string `json:"xuid" validate:"required"`
	Gamertag     *string `json:"gamertag" validate:"required"`
	XboxUserHash *string `json:"xboxUserHash" validate:"required"`
	Email        *string `json:"email" validate:"required"`
	Role         *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

type wireTokens struct {
	Microsoft     *string    `json:"microsoft" validate:"required"`
	Xbox          *string    `json:"xbox" validate:"required"`
	XSTS          *string    `json:"xsts" validate:"required"`
	XboxExpiresOn *time.Time `json:"xboxExpiresOn,omitempty"`
	XSTSExpiresOn *time.Time `json:"xstsExpiresOn,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode validates raw against the session schema and returns the typed
// Session. Any shape mismatch yields a *SchemaError and a zero Session, never
// a partially populated one.
func Decode(raw []byte) (Session, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Session{}, &SchemaError{Reason: "empty record"}
	}

	var w wireSession
	if err := json.Unmarshal(raw, &w); err != nil {
		return Session{}, schemaErrorFromJSON(err)
	}
	if err := validate.Struct(w); err != nil {
		return Session{}, schemaErrorFromValidation(err)
	}

	role, ok := ParseRole(utils.Value(w.User.Role))
	if !ok {
		return Session{}, &SchemaError{Field: "user.role", Reason: fmt.Sprintf("unknown role %q", utils.Value(w.User.Role))}
	}

	return Session{
		User: User{
			XUID:         *w.User.XUID,
			Gamertag:     *w.User.Gamertag,
			XboxUserHash: *w.User.XboxUserHash,
			Email:        *w.User.Email,
			Role:         role,
		},
		Tokens: Tokens{
			Microsoft:     *w.Tokens.Microsoft,
			Xbox:          *w.Tokens.Xbox,
			XSTS:          *w.Tokens.XSTS,
			XboxExpiresOn: derefTime(w.Tokens.XboxExpiresOn),
			XSTSExpiresOn: derefTime(w.Tokens.XSTSExpiresOn),
		},
		AccessToken:  *w.AccessToken,
		RefreshToken: utils.Value(w.RefreshToken),
	}, nil
}

// Encode produces the canonical record for s. Zero expiries and an empty
// refresh token are omitted.
func Encode(s Session) ([]byte, error) {
	role := s.User.Role
	if role == "" {
		role = RoleUser
	}
	if _, ok := ParseRole(string(role)); !ok {
		return nil, &SchemaError{Field: "user.role", Reason: fmt.Sprintf("unknown role %q", role)}
	}

	w := wireSession{
		User: &wireUser{
			XUID:         utils.Ptr(s.User.XUID),
			Gamertag:     utils.Ptr(s.User.Gamertag),
			XboxUserHash: utils.Ptr(s.User.XboxUserHash),
			Email:        utils.Ptr(s.User.Email),
			Role:         utils.Ptr(string(role)),
		},
		Tokens: &wireTokens{
			Microsoft:     utils.Ptr(s.Tokens.Microsoft),
			Xbox:          utils.Ptr(s.Tokens.Xbox),
			XSTS:          utils.Ptr(s.Tokens.XSTS),
			XboxExpiresOn: timePtr(s.Tokens.XboxExpiresOn),
			XSTSExpiresOn: timePtr(s.Tokens.XSTSExpiresOn),
		},
		AccessToken:  utils.Ptr(s.AccessToken),
		RefreshToken: utils.NonZero(s.RefreshToken),
	}

	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return b, nil
}

func schemaErrorFromJSON(err error) *SchemaError {
	var typeErr *json.UnmarshalTypeError
	if apperrors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "(root)"
		}
		return &SchemaError{Field: field, Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value), cause: err}
	}
	var timeErr *time.ParseError
	if apperrors.As(err, &timeErr) {
		return &SchemaError{Reason: "invalid timestamp", cause: err}
	}
	return &SchemaError{Reason: "malformed record", cause: err}
}

func schemaErrorFromValidation(err error) *SchemaError {
	var verrs validator.ValidationErrors
	if !apperrors.As(err, &verrs) || len(verrs) == 0 {
		return &SchemaError{Reason: "invalid record", cause: err}
	}
	first := verrs[0]
	field := first.Namespace()
	// Drop the root struct name; keep the JSON path.
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	reason := first.Tag()
	if first.Param() != "" {
		reason = fmt.Sprintf("%s=%s", first.Tag(), first.Param())
	}
	return &SchemaError{Field: field, Reason: reason, cause: err}
}

func derefTime(v *time.Time) time.Time {
	if v == nil {
		return time.Time{}
	}
	return v.UTC()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
