package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedContentType is returned by ParseBody when the request
	// Content-Type is missing or not one it can decode.
	ErrUnsupportedContentType = errors.New("content type not supported")

	// ErrRequired is wrapped by the FieldError of a missing required field.
	ErrRequired = errors.New("field is required")

	errNotStruct = errors.New("destination must be a pointer to a struct")
)

const (
	// maxMemory bounds the multipart form kept in memory, the rest spills
	// to disk.
	maxMemory = 10 << 20

	// maxJSONBody bounds JSON documents.
	maxJSONBody = 1 << 20
)

// FieldError reports the form field that could not be bound.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field '%s': %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ParseBody decodes the request body into dst, a pointer to a struct,
// according to the request Content-Type. Media type parameters such as
// charset are ignored.
//
// Form bodies (urlencoded, multipart and text/plain) are mapped with
// `form` tags. A tag may carry options after the name:
//
//	type CreateForm struct {
//	    Transcript string `form:"transcript,required,trim"`
//	    PhotoKey   string `form:"photo_key,trim"`
//	}
//
// "trim" strips surrounding white space before binding and "required"
// rejects a field that is absent or blank once trimmed. Strings, signed and
// unsigned integers, floats, bools (including the HTML "on"/"off") and
// slices of those are supported.
//
// JSON bodies use `json` tags and are limited to 1MB.
func ParseBody(r *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ErrUnsupportedContentType
	}

	switch mediaType {
	case "application/x-www-form-urlencoded", "text/plain":
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("parse form: %w", err)
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return fmt.Errorf("parse form: %w", err)
		}
	case "application/json":
		return decodeJSON(r, dst)
	default:
		return ErrUnsupportedContentType
	}

	return bindForm(r.Form, dst)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// bindForm copies values into the tagged fields of dst.
func bindForm(values map[string][]string, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return errNotStruct
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		field := rv.Field(i)
		tag, ok := rt.Field(i).Tag.Lookup("form")
		if !ok || tag == "-" || !field.CanSet() {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		required := hasOption(opts, "required")
		trim := hasOption(opts, "trim")

		vals := values[name]
		if trim {
			trimmed := make([]string, len(vals))
			for j, v := range vals {
				trimmed[j] = strings.TrimSpace(v)
			}
			vals = trimmed
		}

		if len(vals) == 0 || (len(vals) == 1 && vals[0] == "") {
			if required {
				return &FieldError{Field: name, Err: ErrRequired}
			}
			if len(vals) == 0 {
				continue
			}
		}

		if err := setField(field, vals); err != nil {
			return &FieldError{Field: name, Err: err}
		}
	}

	return nil
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func setField(field reflect.Value, vals []string) error {
	if field.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(field.Type(), len(vals), len(vals))
		for i, v := range vals {
			if err := setScalar(slice.Index(i), v); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		field.Set(slice)
		return nil
	}
	return setScalar(field, vals[0])
}

func setScalar(field reflect.Value, v string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(v)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(v, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(v, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", v)
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(v, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float %q", v)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, ok := formBools[strings.ToLower(v)]
		if !ok {
			return fmt.Errorf("invalid boolean %q", v)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// formBools covers strconv.ParseBool plus what HTML checkboxes send.
var formBools = map[string]bool{
	"1": true, "t": true, "true": true, "on": true, "yes": true,
	"0": false, "f": false, "false": false, "off": false, "no": false, "": false,
}
