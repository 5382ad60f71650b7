// Package bind decodes and validates request payloads.
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"

	perr "github.com/bodul/autocross/internal/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator holds the shared validator and its english translator.
type Validator struct {
	v     *validator.Validate
	trans ut.Translator
}

var (
	once sync.Once
	svc  *Validator
)

// Get returns the shared validator, building it on first use.
func Get() *Validator {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "" || tag == "-" {
				return fld.Name
			}
			if i := strings.Index(tag, ","); i >= 0 {
				tag = tag[:i]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		svc = &Validator{v: v, trans: trans}
	})
	return svc
}

// Struct validates s and returns a CodeValidation error whose message lists
// every failing field, sorted.
func Struct(s any) error {
	val := Get()
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return perr.Wrap(err, perr.CodeValidation, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(val.trans))
	}
	sort.Strings(msgs)
	return perr.New(perr.CodeValidation, strings.Join(msgs, "; "))
}

// MaxBytes caps JSON bodies.
const MaxBytes = 1 << 20

// JSON decodes the request body into T, rejecting unknown fields and
// trailing data, then validates it.
func JSON[T any](r *http.Request) (T, error) {
	var v T
	body := io.LimitReader(r.Body, MaxBytes+1)
	data, err := io.ReadAll(body)
	if err != nil {
		return v, perr.Wrap(err, perr.CodeJSON, "read body")
	}
	if len(data) > MaxBytes {
		return v, perr.New(perr.CodeJSON, "request body too large")
	}

	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, perr.New(perr.CodeJSON, "empty body")
		}
		return v, perr.Wrap(err, perr.CodeJSON, "invalid JSON")
	}
	if dec.More() {
		return v, perr.New(perr.CodeJSON, "trailing data after JSON body")
	}

	if err := Struct(v); err != nil {
		return v, err
	}
	return v, nil
}
