// Package configstruct fills option structures from a configmap.Getter
package configstruct

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/fs/config/configmap"
	"github.com/pkg/errors"
)

var matchUpper = regexp.MustCompile("([A-Z]+)")

// camelToSnake converts CamelCase to snake_case
func camelToSnake(in string) string {
	out := matchUpper.ReplaceAllString(in, "_$1")
	out = strings.ToLower(out)
	out = strings.Trim(out, "_")
	return out
}

var durationType = reflect.TypeOf(time.Duration(0))

// StringToInterface turns in into an interface{} the same type as def
func StringToInterface(def interface{}, in string) (newValue interface{}, err error) {
	typ := reflect.TypeOf(def)
	switch {
	case typ.Kind() == reflect.String:
		// Pass strings unmodified
		return in, nil
	case typ == durationType:
		// time.Duration isn't a fmt.Scanner so accept the same
		// syntax as fs.Duration
		d, err := fs.ParseDuration(in)
		if err != nil {
			return newValue, errors.Wrapf(err, "parsing %q as %T failed", in, def)
		}
		return d, nil
	}
	// Otherwise parse with Sscanln
	//
	// This means any types we use here must implement fmt.Scanner
	o := reflect.New(typ)
	n, err := fmt.Sscanln(in, o.Interface())
	if err != nil {
		return newValue, errors.Wrapf(err, "parsing %q as %T failed", in, def)
	}
	if n != 1 {
		return newValue, errors.New("no items parsed")
	}
	return o.Elem().Interface(), nil
}

// Item describes a single entry in the options structure
type Item struct {
	Name     string // snake_case
	Field    string // CamelCase
	Num      int    // number of the field in the struct
	Required bool   // set with `config:"name,required"`
	Value    interface{}
}

// Items parses the opt struct and returns a slice of Item objects.
//
// opt must be a pointer to a struct.  The struct should have entirely
// public fields.
//
// The config name is looked up in a struct tag called "config" or if
// not found is the field name converted from CamelCase to snake_case.
// A tag of "-" skips the field.
func Items(opt interface{}) (items []Item, err error) {
	def := reflect.ValueOf(opt)
	if def.Kind() != reflect.Ptr {
		return nil, errors.New("argument must be a pointer")
	}
	def = def.Elem() // indirect the pointer
	if def.Kind() != reflect.Struct {
		return nil, errors.New("argument must be a pointer to a struct")
	}
	defType := def.Type()
	for i := 0; i < def.NumField(); i++ {
		field := defType.Field(i)
		if !field.IsExported() {
			continue
		}
		item := Item{
			Name:  camelToSnake(field.Name),
			Field: field.Name,
			Num:   i,
			Value: def.Field(i).Interface(),
		}
		if tag, ok := field.Tag.Lookup("config"); ok {
			if tag == "-" {
				continue
			}
			name, flags, _ := strings.Cut(tag, ",")
			if name != "" {
				item.Name = name
			}
			item.Required = flags == "required"
		}
		items = append(items, item)
	}
	return items, nil
}

// Set interprets the field names in opt and looks up config values in
// the config passed in.  Any values found in config will be set in the
// opt structure.
//
// opt must be a pointer to a struct.  The field names are converted
// from CamelCase to snake_case and looked up in the config supplied
// or a `config:"field_name"` is looked up.
//
// Fields tagged as required which are missing or empty produce an
// error naming all of them.
//
// All the field types in the struct must be strings, time.Duration or
// implement fmt.Scanner.
func Set(config configmap.Getter, opt interface{}) (err error) {
	items, err := Items(opt)
	if err != nil {
		return err
	}
	var missing []string
	optStruct := reflect.ValueOf(opt).Elem()
	for _, item := range items {
		newValue := item.Value
		configValue, ok := config.Get(item.Name)
		if ok {
			var parsed interface{}
			parsed, err = StringToInterface(newValue, configValue)
			if err != nil {
				// Mask errors if setting an empty string as
				// it isn't valid for all types.  This makes
				// empty string be the equivalent of unset.
				if configValue != "" {
					return errors.Wrapf(err, "couldn't parse config item %q = %q as %T", item.Name, configValue, item.Value)
				}
			} else {
				newValue = parsed
			}
		}
		if item.Required && (!ok || configValue == "") && reflect.ValueOf(newValue).IsZero() {
			missing = append(missing, item.Name)
		}
		optStruct.Field(item.Num).Set(reflect.ValueOf(newValue))
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
