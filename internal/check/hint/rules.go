package hint

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"structcheck/internal/check/kind"
	appErr "structcheck/pkg/errors"

	"gopkg.in/yaml.v3"
)

//go:embed rules/*.yaml
var embeddedRules embed.FS

// SupportedVersion is the rule file format understood by this package.
const SupportedVersion = 1

// RuleSet is the hint table of one kind.
type RuleSet struct {
	Version int          `yaml:"version"`
	Kind    kind.Kind    `yaml:"kind"`
	Methods []MethodRule `yaml:"methods"`
}

// MethodRule lists what a single method is expected to contain.
type MethodRule struct {
	Method  string        `yaml:"method"`
	Anchors Anchors       `yaml:"anchors"`
	Locals  []Expectation `yaml:"locals"`
	Source  []Expectation `yaml:"source"`
}

// Anchors delimit a method's source slice. End is searched after Start.
type Anchors struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Expectation fires Hint when none of AnyOf is found.
type Expectation struct {
	AnyOf []string `yaml:"anyOf"`
	Hint  string   `yaml:"hint"`
}

// Messages are format strings for structural problems with a method.
type Messages struct {
	MethodMissing string `yaml:"methodMissing"`
	AnchorMissing string `yaml:"anchorMissing"`
}

var defaultMessages = Messages{
	MethodMissing: "Метод %s: метод не найден. Не удаляйте и не переименовывайте методы из шаблона",
	AnchorMissing: "Метод %s: не найдена сигнатура %q. Не изменяйте сигнатуры методов из шаблона",
}

// Catalog holds the rule sets of all kinds.
type Catalog struct {
	sets     map[kind.Kind]*RuleSet
	messages Messages
}

// DefaultCatalog returns the rules compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	sub, err := fs.Sub(embeddedRules, "rules")
	if err != nil {
		return nil, err
	}
	return LoadCatalog(sub)
}

// LoadDir reads rule files from dir on disk.
func LoadDir(dir string) (*Catalog, error) {
	return LoadCatalog(os.DirFS(dir))
}

type messagesFile struct {
	Messages *Messages `yaml:"messages"`
}

// LoadCatalog reads every *.yaml file at the root of fsys. A file may carry
// a rule set or a top-level messages block.
func LoadCatalog(fsys fs.FS) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	c := &Catalog{sets: make(map[kind.Kind]*RuleSet), messages: defaultMessages}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.InternalServerError, "read rule file %s failed", name)
		}
		var mf messagesFile
		if err := yaml.Unmarshal(data, &mf); err == nil && mf.Messages != nil {
			c.applyMessages(*mf.Messages)
			continue
		}
		var rs RuleSet
		if err := yaml.Unmarshal(data, &rs); err != nil {
			return nil, appErr.Wrapf(err, appErr.InvalidFormat, "parse rule file %s failed", name)
		}
		if err := rs.validate(); err != nil {
			return nil, appErr.Wrapf(err, appErr.InvalidFormat, "rule file %s: %v", path.Base(name), err)
		}
		if _, dup := c.sets[rs.Kind]; dup {
			return nil, appErr.Newf(appErr.InvalidFormat, "rule file %s: duplicate rules for %s", name, rs.Kind)
		}
		c.sets[rs.Kind] = &rs
	}
	return c, nil
}

func (c *Catalog) applyMessages(m Messages) {
	if m.MethodMissing != "" {
		c.messages.MethodMissing = m.MethodMissing
	}
	if m.AnchorMissing != "" {
		c.messages.AnchorMissing = m.AnchorMissing
	}
}

func (rs *RuleSet) validate() error {
	if rs.Version != SupportedVersion {
		return fmt.Errorf("unsupported version %d", rs.Version)
	}
	if !rs.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", rs.Kind)
	}
	for i, m := range rs.Methods {
		if strings.TrimSpace(m.Method) == "" {
			return fmt.Errorf("method rule %d has no method name", i)
		}
		if len(m.Source) > 0 && m.Anchors.Start == "" {
			return fmt.Errorf("method %s has source rules without a start anchor", m.Method)
		}
		for _, e := range append(append([]Expectation{}, m.Locals...), m.Source...) {
			if len(e.AnyOf) == 0 || e.Hint == "" {
				return fmt.Errorf("method %s has an incomplete expectation", m.Method)
			}
		}
	}
	return nil
}

// Rules returns the rule set for k, or nil when the kind has none.
func (c *Catalog) Rules(k kind.Kind) *RuleSet {
	return c.sets[k]
}

// Kinds lists the kinds that have rules.
func (c *Catalog) Kinds() []kind.Kind {
	var out []kind.Kind
	for _, k := range kind.All() {
		if _, ok := c.sets[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
