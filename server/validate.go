package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("malformed request body")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// decode reads a JSON body into v, which should already hold its
// defaults, then validates it. An empty body leaves the defaults.
func decode(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(body) > 0 {
		if err := unmarshal(body, v); err != nil {
			return err
		}
	}
	return getValidator().Struct(v)
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadBody, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", errBadBody, maxBodyBytes)
	}
	return bytes.TrimSpace(body), nil
}

// decodeListOrObject accepts either a bare JSON array, which is stored
// into *list, or an object decoded into v. Query parameters are applied
// by the caller afterwards.
func decodeListOrObject(r *http.Request, list *[]string, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	switch {
	case len(body) == 0:
		return nil
	case body[0] == '[':
		return unmarshal(body, list)
	default:
		return unmarshal(body, v)
	}
}

func unmarshal(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	return nil
}

func queryInt(r *http.Request, key string, dst *int) error {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: query parameter %s: %q is not an integer", errBadBody, key, raw)
	}
	*dst = n
	return nil
}

func queryBool(r *http.Request, key string, dst *bool) error {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%w: query parameter %s: %q is not a boolean", errBadBody, key, raw)
	}
	*dst = b
	return nil
}

func queryString(r *http.Request, key string, dst *string) {
	if raw := r.URL.Query().Get(key); raw != "" {
		*dst = raw
	}
}

// validationMessage renders validator errors using json field names.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	var buf bytes.Buffer
	for i, fe := range verrs {
		if i > 0 {
			buf.WriteString("; ")
		}
		switch fe.Tag() {
		case "required":
			fmt.Fprintf(&buf, "%s is required", fe.Field())
		case "min", "gte":
			fmt.Fprintf(&buf, "%s must be at least %s", fe.Field(), fe.Param())
		case "max", "lte":
			fmt.Fprintf(&buf, "%s must be at most %s", fe.Field(), fe.Param())
		case "url", "http_url":
			fmt.Fprintf(&buf, "%s must be a URL", fe.Field())
		case "oneof":
			fmt.Fprintf(&buf, "%s must be one of [%s]", fe.Field(), fe.Param())
		default:
			fmt.Fprintf(&buf, "%s failed %s validation", fe.Field(), fe.Tag())
		}
	}
	return buf.String()
}
