// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patterns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilesCompile(t *testing.T) {
	for _, name := range Profiles() {
		t.Run(name, func(t *testing.T) {
			tbl, err := Profile(name)
			require.NoError(t, err)
			assert.Equal(t, name, tbl.Name())
			assert.Equal(t, "patterns:"+name, tbl.Source())
			assert.NotEmpty(t, tbl.Entities())
			assert.NotEmpty(t, tbl.Relations())
		})
	}
}

func TestProfileUnknown(t *testing.T) {
	_, err := Profile("no-such-profile")
	assert.Error(t, err)
}

func TestSchoolGardensExtendsFarmToSchool(t *testing.T) {
	base, err := Profile(ProfileFarmToSchool)
	require.NoError(t, err)
	ext, err := Profile(ProfileSchoolGardens)
	require.NoError(t, err)

	assert.Greater(t, len(ext.Entities()), len(base.Entities()))
	assert.Greater(t, len(ext.Relations()), len(base.Relations()))

	got, ok := ext.Aliases().Lookup("legislative body")
	require.True(t, ok)
	assert.Equal(t, "senate", got, "later alias groups override earlier ones")

	got, ok = base.Aliases().Lookup("legislative body")
	require.True(t, ok)
	assert.Equal(t, "legislature", got)
}

func TestCompileMalformedPatternFails(t *testing.T) {
	_, err := Compile(Spec{
		Name:     "bad",
		Entities: []EntityPattern{{Type: "GOAL", Pattern: `thirty (per cent`}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thirty (per cent")

	_, err = Compile(Spec{
		Name:      "bad",
		Relations: []RelationTemplate{{Pattern: `[a-`, Subject: "a", Predicate: "b", Object: "c"}},
	})
	assert.Error(t, err)
}

func TestCompileRequiresTripleFields(t *testing.T) {
	_, err := Compile(Spec{
		Name:      "bad",
		Relations: []RelationTemplate{{Pattern: `x`, Subject: "a", Object: "c"}},
	})
	assert.Error(t, err)
}

func TestCompileDefaultsConfidence(t *testing.T) {
	tbl, err := Compile(Spec{
		Name:      "t",
		Entities:  []EntityPattern{{Type: "GOAL", Pattern: `goal`}},
		Relations: []RelationTemplate{{Pattern: `x`, Subject: "a", Predicate: "b", Object: "c"}},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfidence, tbl.Entities()[0].Confidence)
	assert.Equal(t, DefaultConfidence, tbl.Relations()[0].Confidence)
}

func TestPatternsAreCaseInsensitive(t *testing.T) {
	tbl, err := Compile(Spec{
		Name:     "t",
		Entities: []EntityPattern{{Type: "AGENCY", Pattern: `department of education`}},
	})
	require.NoError(t, err)
	assert.True(t, tbl.Entities()[0].Regexp.MatchString("The DEPARTMENT of Education shall"))
}

func TestEntitiesReturnsCopy(t *testing.T) {
	tbl, err := Profile(ProfileFarmToSchool)
	require.NoError(t, err)
	rules := tbl.Entities()
	rules[0].Type = "CHANGED"
	assert.NotEqual(t, "CHANGED", tbl.Entities()[0].Type)
}

func TestProperty(t *testing.T) {
	tbl, err := Profile(ProfileFarmToSchool)
	require.NoError(t, err)

	p, ok := tbl.Property("  Moved ")
	assert.True(t, ok)
	assert.Equal(t, "moved_to", p)

	_, ok = tbl.Property("moved from")
	assert.False(t, ok)
}

func TestLoadExtendsBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	data := `name: custom
extends: farm-to-school
entities:
  - type: FUNDING
    pattern: 'special fund'
    confidence: 0.9
relations:
  - family: FUNDING
    pattern: 'special fund.*established'
    relation_type: FUNDING
    subject: Legislature
    predicate: establishes
    object: special fund
aliases:
  - canonical: special fund
    aliases: [the fund]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", tbl.Name())

	rules := tbl.Entities()
	last := rules[len(rules)-1]
	assert.Equal(t, "FUNDING", last.Type)
	assert.Equal(t, 0.9, last.Confidence)

	got, ok := tbl.Aliases().Lookup("the fund")
	require.True(t, ok)
	assert.Equal(t, "special fund", got)

	got, ok = tbl.Aliases().Lookup("doe")
	require.True(t, ok)
	assert.Equal(t, "department of education", got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuiltinSpecMergesBase(t *testing.T) {
	s, ok := BuiltinSpec(ProfileSchoolGardens)
	require.True(t, ok)
	assert.Empty(t, s.Extends)

	base, _ := BuiltinSpec(ProfileFarmToSchool)
	assert.Equal(t, base.Entities, s.Entities[:len(base.Entities)])
}
