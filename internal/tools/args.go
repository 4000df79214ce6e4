// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import "fmt"

// stringArg extracts a required string argument.
func stringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("missing required argument: %s", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string", name)
	}
	return s, nil
}

// objectArg extracts a required object argument.
func objectArg(args map[string]interface{}, name string) (map[string]interface{}, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing required argument: %s", name)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("argument %s must be an object", name)
	}
	return m, nil
}

// optionalObjectArg extracts an object argument, returning an empty map
// when absent.
func optionalObjectArg(args map[string]interface{}, name string) (map[string]interface{}, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return map[string]interface{}{}, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("argument %s must be an object", name)
	}
	return m, nil
}
