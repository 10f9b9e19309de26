package mcp

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ArgumentGetter is an interface for getting arguments from a request
type ArgumentGetter interface {
	GetArguments() map[string]interface{}
}

// bindArguments binds MCP request arguments to a target struct with type
// coercion. Some clients send every parameter as a string, including numbers
// and JSON-encoded arrays.
func bindArguments[T any](request ArgumentGetter, target *T) error {
	rawArgs := request.GetArguments()
	if rawArgs == nil {
		return fmt.Errorf("invalid arguments format")
	}

	jsonStringHook := func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return data, nil
		}

		if t.Kind() == reflect.Slice && strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			slicePtr := reflect.New(t)
			if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err == nil {
				return slicePtr.Elem().Interface(), nil
			}
		}

		if t.Kind() >= reflect.Int && t.Kind() <= reflect.Float64 {
			var n json.Number
			if err := json.Unmarshal([]byte(raw), &n); err == nil {
				return n, nil
			}
		}

		return data, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}

	return decoder.Decode(rawArgs)
}

// resolvePath maps a tool path argument onto the project root. Relative paths
// are joined to root; paths that leave root are rejected.
func resolvePath(root, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path parameter is required")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the project root", path)
	}
	return path, nil
}
