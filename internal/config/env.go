package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces overrides. STUDYBUD_JWT_SECRET wins over JWT_SECRET
// so the service can share an environment with other programs.
const EnvPrefix = "STUDYBUD_"

type lookupFunc func(key string) (string, bool)

var durationType = reflect.TypeOf(time.Duration(0))

// applyEnv overrides every field carrying an env tag. All bad values are
// reported together, each under the variable that supplied it.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	var errs []error
	walkEnv(reflect.ValueOf(cfg).Elem(), func(field reflect.Value, key string) {
		name, raw, ok := lookupPrefixed(lookup, key)
		if !ok {
			return
		}
		if err := decodeEnv(field, raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	})
	return errors.Join(errs...)
}

func walkEnv(v reflect.Value, visit func(field reflect.Value, key string)) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != durationType {
			walkEnv(field, visit)
			continue
		}
		if key := t.Field(i).Tag.Get("env"); key != "" && field.CanSet() {
			visit(field, key)
		}
	}
}

func lookupPrefixed(lookup lookupFunc, key string) (string, string, bool) {
	if raw, ok := lookup(EnvPrefix + key); ok {
		return EnvPrefix + key, raw, true
	}
	raw, ok := lookup(key)
	return key, raw, ok
}

func decodeEnv(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid integer format: %w", err)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid boolean format: %w", err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list type %s", field.Type())
		}
		field.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// splitList reads a comma separated list such as CORS origins. Blank
// entries and repeats are dropped.
func splitList(raw string) []string {
	seen := map[string]bool{}
	items := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		items = append(items, part)
	}
	return items
}
