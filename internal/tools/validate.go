// ABOUTME: Argument decoding and validation for tool calls
// ABOUTME: validator/v10 struct tags plus Mattermost-specific rules, reported as readable messages

package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/mattermost/mattermost/server/public/model"

	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

var (
	mattermostIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{26}$`)
	channelNamePattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	usernamePattern     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)
	emojiPattern        = regexp.MustCompile(`^[a-zA-Z0-9_+-]+$`)
	hexColorPattern     = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]validator.Func{
		"mmid": func(fl validator.FieldLevel) bool {
			return mattermostIDPattern.MatchString(fl.Field().String())
		},
		"channelname": func(fl validator.FieldLevel) bool {
			return channelNamePattern.MatchString(fl.Field().String())
		},
		"username": func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		},
		"emoji": func(fl validator.FieldLevel) bool {
			return emojiPattern.MatchString(fl.Field().String())
		},
		"attachcolor": func(fl validator.FieldLevel) bool {
			switch c := fl.Field().String(); c {
			case "good", "warning", "danger":
				return true
			default:
				return hexColorPattern.MatchString(c)
			}
		},
		"channeltype": func(fl validator.FieldLevel) bool {
			switch model.ChannelType(fl.Field().String()) {
			case model.ChannelTypeOpen, model.ChannelTypePrivate, model.ChannelTypeDirect, model.ChannelTypeGroup:
				return true
			}
			return false
		},
		"scalar": func(fl validator.FieldLevel) bool {
			switch fl.Field().Kind() {
			case reflect.String, reflect.Float64, reflect.Int, reflect.Int64:
				return true
			}
			return false
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("tools: registering %q validation: %v", tag, err))
		}
	}
	return v
}

// decodeArguments converts the raw argument value of a tool call into dst.
// Unknown arguments are rejected.
func decodeArguments(raw any, dst any) error {
	if raw == nil {
		raw = map[string]any{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return &mattermost.ValidationError{Message: "arguments must be a JSON object"}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &mattermost.ValidationError{Message: decodeErrorMessage(err)}
	}
	return nil
}

func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return "arguments must be a JSON object"
		}
		return fmt.Sprintf("invalid arguments: %s must be %s, got %s", typeErr.Field, jsonTypeName(typeErr.Type), typeErr.Value)
	}
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return "invalid arguments: unknown argument " + field
	}
	return "invalid arguments: " + err.Error()
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}

// validateArguments runs struct tag validation on args and folds every
// failure into one ValidationError.
func validateArguments(args any) error {
	err := validate.Struct(args)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &mattermost.ValidationError{Message: "invalid arguments: " + err.Error()}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &mattermost.ValidationError{Message: "invalid arguments: " + strings.Join(msgs, "; ")}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", field, snakeCase(fe.Param()))
	case "required_if":
		other, value, _ := strings.Cut(fe.Param(), " ")
		return fmt.Sprintf("%s is required when %s is %q", field, snakeCase(other), value)
	case "min", "gte":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "mmid":
		return field + " must be a 26-character alphanumeric Mattermost ID"
	case "channelname":
		return field + " must start with a lowercase letter or digit and contain only lowercase letters, digits, '-' or '_'"
	case "username":
		return field + " must start with a letter and contain only letters, digits, '.', '_' or '-'"
	case "emoji":
		return field + " must be an emoji name such as thumbsup or +1"
	case "attachcolor":
		return field + " must be good, warning, danger or a hex color like #FF0000"
	case "channeltype":
		return field + " must be O (public), P (private), D (direct) or G (group)"
	case "scalar":
		return field + " must be a string or a number"
	case "url", "http_url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// snakeCase turns a Go field name like AuthorLink into author_link.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
