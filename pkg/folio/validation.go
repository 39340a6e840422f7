package folio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// UploadURLPrefix is the path under which uploaded files are served.
const UploadURLPrefix = "/uploads/"

const presentTag = "present"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func schemaValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
			return IsWebURL(fl.Field().String())
		})
		_ = v.RegisterValidation("assetref", func(fl validator.FieldLevel) bool {
			return IsAssetRef(fl.Field().String())
		})
		// present is checked against the document keys by conformKeys
		_ = v.RegisterValidation(presentTag, func(validator.FieldLevel) bool { return true })
		validate = v
	})
	return validate
}

// IsWebURL reports whether s is an absolute http or https URL with a host.
func IsWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsAssetRef accepts either a web URL or a path to an uploaded file.
func IsAssetRef(s string) bool {
	if IsWebURL(s) {
		return true
	}
	name, ok := strings.CutPrefix(s, UploadURLPrefix)
	if !ok {
		return false
	}
	_, err := SanitizeFilename(name)
	return err == nil
}

// Validate decodes raw into a record of model m on top of its defaults and
// checks every schema constraint. Keys match field names exactly; unknown
// keys, including case variants of known ones, are ignored.
func Validate(m Model, raw json.RawMessage) (Record, error) {
	rec := m.New()
	if rec == nil {
		return nil, ErrInvalidModel
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || isNull(trimmed) {
		return nil, &ValidationError{Model: m, Fields: []FieldError{{Field: "data", Message: "field required"}}}
	}

	conformed, missing := conformKeys(reflect.TypeOf(rec), trimmed, "")

	if err := json.Unmarshal(conformed, rec); err != nil {
		return nil, &ValidationError{Model: m, Fields: []FieldError{decodeFieldError(err)}}
	}

	err := ValidateRecord(rec)
	if len(missing) == 0 {
		if err != nil {
			return nil, err
		}
		return rec, nil
	}

	fields := missing
	var verr *ValidationError
	if errors.As(err, &verr) {
		seen := make(map[string]bool, len(missing))
		for _, f := range missing {
			seen[f.Field] = true
		}
		for _, f := range verr.Fields {
			if !seen[f.Field] {
				fields = append(fields, f)
			}
		}
	}
	return nil, &ValidationError{Model: m, Fields: fields}
}

// conformKeys keeps only the keys of the JSON object raw that name a field
// of t exactly, recursing into nested structs and slices of structs. It
// reports present fields whose key is absent or null. Values that are not
// objects are returned unchanged for json.Unmarshal to reject.
func conformKeys(t reflect.Type, raw json.RawMessage, prefix string) (json.RawMessage, []FieldError) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return raw, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return raw, nil
	}

	var missing []FieldError
	kept := make(map[string]json.RawMessage, len(obj))
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := jsonName(f)
		if name == "" {
			continue
		}
		path := prefix + name

		val, ok := obj[name]
		if !ok || isNull(val) {
			if hasTag(f, presentTag) {
				missing = append(missing, FieldError{Field: path, Message: "field required"})
			}
			if ok {
				kept[name] = val
			}
			continue
		}

		var errs []FieldError
		switch ft := f.Type; {
		case ft.Kind() == reflect.Struct:
			val, errs = conformKeys(ft, val, path+".")
		case ft.Kind() == reflect.Slice && ft.Elem().Kind() == reflect.Struct:
			val, errs = conformItems(ft.Elem(), val, path)
		}
		missing = append(missing, errs...)
		kept[name] = val
	}

	out, err := json.Marshal(kept)
	if err != nil {
		return raw, missing
	}
	return out, missing
}

func conformItems(t reflect.Type, raw json.RawMessage, path string) (json.RawMessage, []FieldError) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return raw, nil
	}

	var missing []FieldError
	for i := range items {
		var errs []FieldError
		items[i], errs = conformKeys(t, items[i], fmt.Sprintf("%s[%d].", path, i))
		missing = append(missing, errs...)
	}

	out, err := json.Marshal(items)
	if err != nil {
		return raw, missing
	}
	return out, missing
}

func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func hasTag(f reflect.StructField, tag string) bool {
	for _, t := range strings.Split(f.Tag.Get("validate"), ",") {
		if t == tag {
			return true
		}
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ValidateRecord runs the schema constraints of an already decoded record
// and normalizes its collections.
func ValidateRecord(rec Record) error {
	rec.normalize()

	err := schemaValidator().Struct(rec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Model: rec.Model(), Fields: []FieldError{{Field: "data", Message: err.Error()}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
		})
	}
	return &ValidationError{Model: rec.Model(), Fields: fields}
}

// EncodeRecord marshals a validated record for storage.
func EncodeRecord(rec Record) (json.RawMessage, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", rec.Model(), err)
	}
	return data, nil
}

// fieldPath drops the struct name validator puts in front of the namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "weburl":
		return "must be a valid http(s) URL"
	case "assetref":
		return "must be a valid http(s) URL or an " + UploadURLPrefix + " path"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func decodeFieldError(err error) FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "data"
		}
		return FieldError{Field: field, Message: "expected " + jsonKind(typeErr.Type) + ", got " + typeErr.Value}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return FieldError{Field: "data", Message: "malformed JSON"}
	}
	return FieldError{Field: "data", Message: err.Error()}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return t.String()
	}
}
