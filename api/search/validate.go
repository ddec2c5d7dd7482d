package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/killallgit/gistapi/internal/models"
	apperrors "github.com/killallgit/gistapi/pkg/errors"
)

// requestKeys is the exact key set a search request must carry
var requestKeys = []string{"username", "pattern"}

// rawSearchRequest keeps each value undecoded so its JSON type can be checked
type rawSearchRequest struct {
	Username json.RawMessage `json:"username" validate:"jsonstring"`
	Pattern  json.RawMessage `json:"pattern" validate:"jsonstring"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("jsonstring", validateJSONString)
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return v
}

// validateJSONString accepts a raw JSON value only if it is a string literal.
// null, numbers, booleans, arrays and objects are rejected.
func validateJSONString(fl validator.FieldLevel) bool {
	raw := fl.Field().Bytes()
	return len(raw) > 0 && raw[0] == '"'
}

// DecodeRequest reads a search request body. The body must be a JSON object
// with exactly the keys username and pattern, both holding strings.
// Values are returned unchanged.
func DecodeRequest(body io.Reader) (*models.SearchRequest, error) {
	var fields map[string]json.RawMessage

	dec := json.NewDecoder(body)
	if err := dec.Decode(&fields); err != nil {
		return nil, decodeError(err)
	}
	if dec.More() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "request body must contain a single JSON object")
	}
	if fields == nil {
		return nil, apperrors.SchemaError(requestKeys, "body is null")
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := validate.Var(keys, fmt.Sprintf("len=%d,dive,oneof=%s", len(requestKeys), strings.Join(requestKeys, " "))); err != nil {
		return nil, apperrors.SchemaError(requestKeys, fmt.Sprintf("got keys %v", keys))
	}

	raw := rawSearchRequest{
		Username: fields["username"],
		Pattern:  fields["pattern"],
	}
	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, apperrors.TypeMismatchError(verrs[0].Field(), "string")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "validate request")
	}

	var req models.SearchRequest
	if err := json.Unmarshal(raw.Username, &req.Username); err != nil {
		return nil, apperrors.TypeMismatchError("username", "string")
	}
	if err := json.Unmarshal(raw.Pattern, &req.Pattern); err != nil {
		return nil, apperrors.TypeMismatchError("pattern", "string")
	}

	return &req, nil
}

func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		appErr := apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "request body too large")
		appErr.HTTPCode = http.StatusRequestEntityTooLarge
		return appErr
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.SchemaError(requestKeys, "body is not a JSON object")
	}

	if errors.Is(err, io.EOF) {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "request body is empty")
	}

	return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "request body is not valid JSON")
}
