// Package lang loads the UI string packs.
//
// Packs are YAML maps embedded in the binary. Lookups fall back to the
// English pack, and keys missing from both render as "[[key]]" so absent
// translations are visible on the page instead of silently blank.
package lang

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLang is the fallback pack
const DefaultLang = "en"

// String keys used by the service and the edit page
const (
	KeyColumnTitle   = "columncompetencies"
	KeyCompetency    = "competency"
	KeyNone          = "competency_none"
	KeyEdit          = "editcompetency"
	KeyEditPageTitle = "editcompetencypagetitle"
	KeyEditSaved     = "editcompetencysaved"
	KeySaveChanges   = "savechanges"
)

//go:embed packs/*.yaml
var packsFS embed.FS

// Strings resolves string keys for one language
type Strings struct {
	code     string
	strings  map[string]string
	fallback map[string]string
}

// Load returns the string pack for code, falling back to English for
// missing keys. An unknown code is an error.
func Load(code string) (*Strings, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		code = DefaultLang
	}

	fallback, err := readPack(DefaultLang)
	if err != nil {
		return nil, err
	}
	if code == DefaultLang {
		return &Strings{code: code, strings: fallback, fallback: fallback}, nil
	}

	pack, err := readPack(code)
	if err != nil {
		return nil, err
	}
	return &Strings{code: code, strings: pack, fallback: fallback}, nil
}

// MustLoad is Load for packs known to be embedded
func MustLoad(code string) *Strings {
	s, err := Load(code)
	if err != nil {
		panic(err)
	}
	return s
}

func readPack(code string) (map[string]string, error) {
	data, err := packsFS.ReadFile("packs/" + code + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown language %q", code)
	}

	pack := make(map[string]string)
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse language pack %s: %w", code, err)
	}
	return pack, nil
}

// Code returns the language code of the pack
func (s *Strings) Code() string {
	return s.code
}

// Get returns the string for key
func (s *Strings) Get(key string) string {
	if v, ok := s.strings[key]; ok {
		return v
	}
	if v, ok := s.fallback[key]; ok {
		return v
	}
	return "[[" + key + "]]"
}
