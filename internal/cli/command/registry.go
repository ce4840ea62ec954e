package command

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"structcheck/internal/check/kind"
)

var sourceFields = []Field{
	{Name: "kind", Aliases: []string{"structure"}, Prompt: "kind", Type: FieldKind, Required: true},
	{Name: "file", Aliases: []string{"source_file"}, Prompt: "source file", Type: FieldFile, Required: true},
	{Name: "login", Prompt: "login", Type: FieldString},
}

// Registry returns all shell commands keyed by "group action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Group:        "check",
			Action:       "run",
			Method:       "POST",
			PathTemplate: "/api/v1/structures/:kind/check",
			Usage:        "check run kind=Queue file=./queue.go [login=alice]",
			Fields:       sourceFields,
		},
		{
			Group:        "check",
			Action:       "submit",
			Method:       "POST",
			PathTemplate: "/api/v1/structures/:kind/submissions",
			Usage:        "check submit kind=Stack file=./stack.go",
			Fields:       sourceFields,
		},
		{
			Group:        "check",
			Action:       "status",
			Method:       "GET",
			PathTemplate: "/api/v1/checks/:id",
			Usage:        "check status id=<check id>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"check_id"}, Prompt: "check id", Type: FieldString, Required: true},
			},
		},
		{
			Group:        "check",
			Action:       "watch",
			Method:       "GET",
			PathTemplate: "/api/v1/checks/:id/stream",
			Stream:       true,
			Usage:        "check watch id=<check id>",
			Fields: []Field{
				{Name: "id", Aliases: []string{"check_id"}, Prompt: "check id", Type: FieldString, Required: true},
			},
		},
		{
			Group:        "code",
			Action:       "latest",
			Method:       "GET",
			PathTemplate: "/api/v1/structures/:kind/code",
			Usage:        "code latest kind=List login=alice",
			Fields: []Field{
				{Name: "kind", Aliases: []string{"structure"}, Prompt: "kind", Type: FieldKind, Required: true},
				{Name: "login", Prompt: "login", Type: FieldString, Required: true, Query: true},
			},
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Key()] = cmd
	}
	return result
}

// Sorted returns the commands of registry ordered by key.
func Sorted(registry map[string]Command) []Command {
	out := make([]Command, 0, len(registry))
	for _, cmd := range registry {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// BuildRequest creates HTTP request spec based on command.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)
	for _, field := range cmd.Fields {
		if field.Type != FieldKind || params.Get(field.Name) == "" {
			continue
		}
		k, err := kind.Parse(params.Get(field.Name))
		if err != nil {
			return RequestSpec{}, err
		}
		params.Set(field.Name, k.String())
	}

	path, err := buildPath(cmd.PathTemplate, params)
	if err != nil {
		return RequestSpec{}, err
	}
	query := url.Values{}
	for _, field := range cmd.Fields {
		if field.Query && params.Get(field.Name) != "" {
			query.Set(field.Name, params.Get(field.Name))
		}
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var body []byte
	if cmd.Method != "GET" && cmd.Method != "DELETE" {
		payload, err := buildPayload(cmd, params)
		if err != nil {
			return RequestSpec{}, err
		}
		body, err = json.Marshal(payload)
		if err != nil {
			return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
		}
	}

	return RequestSpec{
		Method:  cmd.Method,
		Path:    path,
		Headers: map[string]string{},
		Body:    body,
		Stream:  cmd.Stream,
	}, nil
}

func buildPath(template string, params Params) (string, error) {
	segments := strings.Split(template, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		key := strings.TrimPrefix(segment, ":")
		value := params.Get(key)
		if value == "" {
			return "", fmt.Errorf("missing path parameter: %s", key)
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}

type sourcePayload struct {
	Code  string `json:"code"`
	Login string `json:"login,omitempty"`
}

func buildPayload(cmd Command, params Params) (interface{}, error) {
	switch cmd.Group {
	case "check":
		code := params.Get("code")
		if code == "" && params.Get("file") != "" {
			var err error
			code, err = ReadFile(params.Get("file"))
			if err != nil {
				return nil, err
			}
		}
		if code == "" {
			return nil, fmt.Errorf("code is required")
		}
		return sourcePayload{Code: code, Login: params.Get("login")}, nil
	}
	return nil, fmt.Errorf("command %s has no request body", cmd.Key())
}
