// Package casetypes maps a branch plus an application identifier or form
// name to the set of external ZGW type URLs to forward with. The table is
// declarative and validated at load so a missing URL fails at startup, not
// halfway through a request.
package casetypes

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed casetypes.yaml
var tableYAML []byte

// ErrConfiguration is wrapped by every resolver failure: unknown branch,
// no or ambiguous selector, or no matching entry.
var ErrConfiguration = errors.New("casetypes: configuration error")

// InformatieObjectTypen holds the document type URLs per document class.
type InformatieObjectTypen struct {
	Generiek string `yaml:"generiek"`
	Aanvraag string `yaml:"aanvraag"`
	Bijlage  string `yaml:"bijlage"`
}

// Properties is the full set of external type URLs for one application or
// form. Loaded once, never mutated.
type Properties struct {
	AppID                   string                `yaml:"appId"`
	FormNames               []string              `yaml:"formNames"`
	Zaaktype                string                `yaml:"zaaktype"`
	Statustype              string                `yaml:"statustype"`
	RoltypeAanvrager        string                `yaml:"roltypeAanvrager"`
	RoltypeBelanghebbende   string                `yaml:"roltypeBelanghebbende"`
	Informatieobjecttypen   InformatieObjectTypen `yaml:"informatieobjecttypen"`
	ProductOfDienst         string                `yaml:"productOfDienst"`
	FormReferenceEigenschap string                `yaml:"formReferenceEigenschap"`
	Bronorganisatie         string                `yaml:"bronorganisatie"`
	UseServerIdentification bool                  `yaml:"useServerIdentification"`
}

// Selector picks an entry by application ID or by form name. Exactly one
// field must be set.
type Selector struct {
	AppID    string
	FormName string
}

// Resolver resolves case-type properties from the embedded table.
type Resolver struct {
	branches map[string][]Properties
}

// Load parses and validates the embedded table. Every entry of every
// branch must carry all URLs; a partial entry is a deployment error.
func Load() (*Resolver, error) {
	var branches map[string][]Properties
	if err := yaml.Unmarshal(tableYAML, &branches); err != nil {
		return nil, fmt.Errorf("%w: parse table: %v", ErrConfiguration, err)
	}
	if len(branches) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrConfiguration)
	}

	for branch, entries := range branches {
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: branch %q has no entries", ErrConfiguration, branch)
		}
		for i, entry := range entries {
			if err := validate(entry); err != nil {
				return nil, fmt.Errorf("%w: branch %q entry %d: %v", ErrConfiguration, branch, i, err)
			}
		}
	}

	return &Resolver{branches: branches}, nil
}

func validate(p Properties) error {
	if p.AppID == "" {
		return errors.New("appId is required")
	}
	required := map[string]string{
		"zaaktype":                   p.Zaaktype,
		"statustype":                 p.Statustype,
		"roltypeAanvrager":           p.RoltypeAanvrager,
		"roltypeBelanghebbende":      p.RoltypeBelanghebbende,
		"informatieobjecttypen.generiek": p.Informatieobjecttypen.Generiek,
		"informatieobjecttypen.aanvraag": p.Informatieobjecttypen.Aanvraag,
		"informatieobjecttypen.bijlage":  p.Informatieobjecttypen.Bijlage,
		"productOfDienst":            p.ProductOfDienst,
		"bronorganisatie":            p.Bronorganisatie,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required for appId %s", field, p.AppID)
		}
	}
	return nil
}

// Resolve returns the properties for the given branch and selector.
// Matching is case-insensitive on both appId and form name.
func (r *Resolver) Resolve(branch string, sel Selector) (Properties, error) {
	if (sel.AppID == "") == (sel.FormName == "") {
		return Properties{}, fmt.Errorf("%w: exactly one of appId or formName must be supplied", ErrConfiguration)
	}

	entries, ok := r.branches[strings.ToLower(strings.TrimSpace(branch))]
	if !ok {
		return Properties{}, fmt.Errorf("%w: unknown branch %q", ErrConfiguration, branch)
	}

	for _, entry := range entries {
		if sel.AppID != "" {
			if strings.EqualFold(entry.AppID, sel.AppID) {
				return entry, nil
			}
			continue
		}
		for _, name := range entry.FormNames {
			if strings.EqualFold(name, sel.FormName) {
				return entry, nil
			}
		}
	}

	if sel.AppID != "" {
		return Properties{}, fmt.Errorf("%w: no entry for appId %q in branch %q", ErrConfiguration, sel.AppID, branch)
	}
	return Properties{}, fmt.Errorf("%w: no entry for form %q in branch %q", ErrConfiguration, sel.FormName, branch)
}

// HasBranch reports whether the table has entries for the branch.
func (r *Resolver) HasBranch(branch string) bool {
	_, ok := r.branches[strings.ToLower(strings.TrimSpace(branch))]
	return ok
}

// UnknownBranchError builds the resolver's unknown-branch failure.
func UnknownBranchError(branch string) error {
	return fmt.Errorf("%w: unknown branch %q", ErrConfiguration, branch)
}

// Branches lists the configured branch names.
func (r *Resolver) Branches() []string {
	names := make([]string, 0, len(r.branches))
	for name := range r.branches {
		names = append(names, name)
	}
	return names
}
