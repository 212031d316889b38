package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the shape of one content file. A file may declare any mix of
// definition kinds; ids must be unique across all files.
type catalogFile struct {
	MagicRealms        []*MagicRealm       `yaml:"magic_realms"`
	LifeformCategories []*LifeformCategory `yaml:"lifeform_categories"`
	WeaponGrades       []*WeaponGrade      `yaml:"weapon_grades"`
	RangedAttackTypes  []*RangedAttackType `yaml:"ranged_attack_types"`
	DamageTypes        []*DamageType       `yaml:"damage_types"`
	UnitSkills         []*UnitSkill        `yaml:"unit_skills"`
	Spells             []*Spell            `yaml:"spells"`
}

// LoadDirectory reads every *.yaml / *.yml file in dir in lexicographic order,
// registers all definitions, and checks cross-references.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a fully populated Registry, or an error if any file fails
// to parse, declares a duplicate id, or references an unknown id.
func LoadDirectory(dir string) (*Registry, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry()
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := reg.load(data); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}
	if err := reg.CheckReferences(); err != nil {
		return nil, fmt.Errorf("checking references in %s: %w", dir, err)
	}
	return reg, nil
}

// LoadBytes parses a single YAML document into a new Registry and checks references.
// Used by tests and tooling that embed content.
func LoadBytes(data []byte) (*Registry, error) {
	reg := NewRegistry()
	if err := reg.load(data); err != nil {
		return nil, err
	}
	if err := reg.CheckReferences(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) load(data []byte) error {
	var cf catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing: %w", err)
	}
	var errs []error
	for _, d := range cf.MagicRealms {
		errs = append(errs, r.RegisterMagicRealm(d))
	}
	for _, d := range cf.LifeformCategories {
		errs = append(errs, r.RegisterLifeformCategory(d))
	}
	for _, d := range cf.WeaponGrades {
		errs = append(errs, r.RegisterWeaponGrade(d))
	}
	for _, d := range cf.RangedAttackTypes {
		errs = append(errs, r.RegisterRangedAttackType(d))
	}
	for _, d := range cf.DamageTypes {
		errs = append(errs, r.RegisterDamageType(d))
	}
	for _, d := range cf.UnitSkills {
		errs = append(errs, r.RegisterUnitSkill(d))
	}
	for _, d := range cf.Spells {
		errs = append(errs, r.RegisterSpell(d))
	}
	return errors.Join(errs...)
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
