package repl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"structcheck/internal/cli/command"
	httpclient "structcheck/internal/cli/http"
	"structcheck/internal/cli/state"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

const mainPrompt = "structcheck> "

// Session holds REPL state.
type Session struct {
	client     *httpclient.Client
	commands   map[string]command.Command
	state      *state.Session
	statePath  string
	prettyJSON bool
	out        io.Writer
	// prompt asks for a missing required field. Nil means fields must be
	// given inline.
	prompt func(label string) (string, error)
}

func New(client *httpclient.Client, commands map[string]command.Command, st *state.Session, statePath string, prettyJSON bool, out io.Writer) *Session {
	return &Session{
		client:     client,
		commands:   commands,
		state:      st,
		statePath:  statePath,
		prettyJSON: prettyJSON,
		out:        out,
	}
}

// Run reads commands until exit, EOF or an interrupt on an empty line.
func (s *Session) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          mainPrompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer func() { _ = rl.Close() }()
	s.out = rl.Stdout()
	s.prompt = func(label string) (string, error) {
		rl.SetPrompt(label + ": ")
		defer rl.SetPrompt(mainPrompt)
		line, err := rl.Readline()
		if err != nil {
			return "", fmt.Errorf("read input failed: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		quit, err := s.Execute(ctx, line)
		if err != nil {
			s.printLine("error: %v", err)
		}
		if quit {
			s.printLine("bye")
			return nil
		}
	}
}

// Execute runs one input line and reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	switch {
	case line == "exit" || line == "quit":
		return true, nil
	case line == "help":
		s.printHelp()
		return false, nil
	case strings.HasPrefix(line, "set "):
		return false, s.handleSet(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
	case strings.HasPrefix(line, "show "):
		s.handleShow(strings.TrimSpace(strings.TrimPrefix(line, "show ")))
		return false, nil
	}
	return false, s.handleCommand(ctx, line)
}

func (s *Session) handleSet(args string) error {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return fmt.Errorf("usage: set base|timeout|login <value>")
	}
	switch parts[0] {
	case "base":
		s.client.SetBaseURL(parts[1])
		s.printLine("base set to %s", parts[1])
		return nil
	case "timeout":
		dur, err := time.ParseDuration(parts[1])
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		s.client.SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
		return nil
	case "login":
		s.state.Login = parts[1]
		s.printLine("login set to %s", parts[1])
		return s.saveState()
	}
	return fmt.Errorf("unknown set command: %s", parts[0])
}

func (s *Session) handleShow(args string) {
	switch args {
	case "config":
		s.printLine("base: %s", s.client.BaseURL())
		s.printLine("statePath: %s", s.statePath)
	case "session":
		s.printLine("login: %s", orEmpty(s.state.Login))
		s.printLine("last check: %s", orEmpty(s.state.LastCheckID))
		s.printLine("last kind: %s", orEmpty(s.state.LastKind))
	default:
		s.printLine("usage: show config|session")
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) < 2 {
		return fmt.Errorf("invalid command, use: <group> <action> key=value ...")
	}
	cmd, ok := s.commands[tokens[0]+" "+tokens[1]]
	if !ok {
		return fmt.Errorf("unknown command: %s %s", tokens[0], tokens[1])
	}
	params, err := command.ParseArgs(tokens[2:])
	if err != nil {
		return err
	}
	params.Canonicalize(cmd.Fields)
	s.applyDefaults(cmd, params)
	if err := s.promptMissing(cmd, params); err != nil {
		return err
	}
	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		return err
	}

	if req.Stream {
		return s.client.Stream(ctx, req.Path, func(frame []byte) error {
			s.printJSON(frame)
			return nil
		})
	}
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Headers, req.Body)
	if err != nil {
		return err
	}
	s.printLine("HTTP %d (%s)", resp.StatusCode, resp.Duration)
	if len(resp.Body) > 0 {
		s.printJSON(resp.Body)
	}
	s.remember(cmd, params, resp.Body)
	return nil
}

// applyDefaults fills login and check id from the saved session.
func (s *Session) applyDefaults(cmd command.Command, params command.Params) {
	for _, field := range cmd.Fields {
		if params.Get(field.Name) != "" {
			continue
		}
		switch field.Name {
		case "login":
			if s.state.Login != "" {
				params.Set("login", s.state.Login)
			}
		case "id":
			if s.state.LastCheckID != "" {
				params.Set("id", s.state.LastCheckID)
			}
		}
	}
}

func (s *Session) promptMissing(cmd command.Command, params command.Params) error {
	for _, field := range cmd.Fields {
		if !field.Required || params.Get(field.Name) != "" {
			continue
		}
		// Inline code replaces the source file.
		if field.Type == command.FieldFile && params.Get("code") != "" {
			continue
		}
		if s.prompt == nil {
			return fmt.Errorf("missing required field: %s", field.Name)
		}
		value, err := s.prompt(field.Prompt)
		if err != nil {
			return err
		}
		params.Set(field.Name, value)
	}
	return nil
}

type envelope struct {
	Data struct {
		CheckID string `json:"checkId"`
	} `json:"data"`
}

func (s *Session) remember(cmd command.Command, params command.Params, body []byte) {
	if cmd.Group != "check" {
		return
	}
	var resp envelope
	if err := json.Unmarshal(body, &resp); err != nil || resp.Data.CheckID == "" {
		return
	}
	s.state.LastCheckID = resp.Data.CheckID
	if k := params.Get("kind"); k != "" {
		s.state.LastKind = k
	}
	if err := s.saveState(); err != nil {
		s.printLine("warning: %v", err)
	}
}

func (s *Session) saveState() error {
	if s.statePath == "" {
		return nil
	}
	return state.Save(s.statePath, *s.state)
}

func (s *Session) completer() *readline.PrefixCompleter {
	groups := map[string][]readline.PrefixCompleterInterface{}
	var order []string
	for _, cmd := range command.Sorted(s.commands) {
		if _, ok := groups[cmd.Group]; !ok {
			order = append(order, cmd.Group)
		}
		groups[cmd.Group] = append(groups[cmd.Group], readline.PcItem(cmd.Action))
	}
	items := make([]readline.PrefixCompleterInterface, 0, len(order)+4)
	for _, group := range order {
		items = append(items, readline.PcItem(group, groups[group]...))
	}
	items = append(items,
		readline.PcItem("set", readline.PcItem("base"), readline.PcItem("timeout"), readline.PcItem("login")),
		readline.PcItem("show", readline.PcItem("config"), readline.PcItem("session")),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
	return readline.NewPrefixCompleter(items...)
}

func (s *Session) printHelp() {
	s.printLine("usage: <group> <action> key=value ...")
	s.printLine("system: help | exit | set base|timeout|login | show config|session")
	s.printLine("commands:")
	for _, cmd := range command.Sorted(s.commands) {
		s.printLine("  %s", cmd.Usage)
	}
}

func (s *Session) printJSON(data []byte) {
	if s.prettyJSON {
		var raw interface{}
		if err := json.Unmarshal(data, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", formatted)
			return
		}
	}
	s.printLine("%s", data)
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}

func orEmpty(v string) string {
	if v == "" {
		return "<empty>"
	}
	return v
}
