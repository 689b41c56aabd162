package validator_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/boosterpack/internal/catalog"
	"github.com/arcanaland/boosterpack/internal/validator"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func containsLine(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

const goodManifest = `
[catalog]
id = "mini"
name = "Mini"
version = "1.0"
cards = "cards.json"
`

const fullCards = `[
  {"id": "1", "name": "S", "rarity": "Secret Rare", "pack": "Alpha", "image": "img/1.png"},
  {"id": "2", "name": "U", "rarity": "Ultra Rare", "pack": "Alpha"},
  {"id": "3", "name": "H", "rarity": "Rare Holo", "pack": "Alpha"},
  {"id": "4", "name": "R", "rarity": "Rare", "pack": "Alpha"},
  {"id": "5", "name": "N", "rarity": "Uncommon", "pack": "Alpha"},
  {"id": "6", "name": "C", "rarity": "Common", "pack": "Alpha"}
]`

func TestValidate_Clean(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"catalog.toml": goodManifest,
		"cards.json":   fullCards,
		"img/1.png":    "png",
	})

	results, err := validator.NewValidator(dir).Validate()
	require.NoError(t, err)
	assert.True(t, results.OK(), "errors: %v", results.Errors)
	assert.Empty(t, results.Warnings)
}

func TestValidate_MissingManifest(t *testing.T) {
	_, err := validator.NewValidator(t.TempDir()).Validate()
	assert.ErrorIs(t, err, catalog.ErrManifestNotFound)
}

func TestValidate_ManifestFields(t *testing.T) {
	dir := writeFiles(t, map[string]string{"catalog.toml": "[catalog]\nname = \"x\"\n"})

	results, err := validator.NewValidator(dir).Validate()
	require.NoError(t, err)
	assert.True(t, containsLine(results.Errors, "catalog.id is required"))
	assert.True(t, containsLine(results.Errors, "catalog.version is required"))
	assert.True(t, containsLine(results.Errors, "catalog.cards is required"))
}

func TestValidate_CardProblems(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"catalog.toml": goodManifest,
		"cards.json": `[
		  {"id": "1", "name": "A", "rarity": "Common", "pack": "Alpha"},
		  {"id": "1", "name": "B", "rarity": "Common", "pack": "Alpha"},
		  {"id": "", "name": "C", "rarity": "Common", "pack": "Alpha"},
		  {"id": "4", "name": "", "rarity": "", "pack": "Alpha", "image": "img/missing.png"}
		]`,
	})

	results, err := validator.NewValidator(dir).Validate()
	require.NoError(t, err)
	assert.False(t, results.OK())
	assert.True(t, containsLine(results.Errors, "duplicate card id 1"))
	assert.True(t, containsLine(results.Errors, "card #3 has no id"))
	assert.True(t, containsLine(results.Errors, "card #4 (4) has no name"))

	assert.True(t, containsLine(results.Warnings, "cards without rarity"))
	assert.True(t, containsLine(results.Warnings, "expansion Alpha has no rare-or-better cards"))
	assert.True(t, containsLine(results.Warnings, "missing card images for: 4"))
}

func TestValidate_UnreadableCardFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"catalog.toml": goodManifest,
		"cards.json":   "{broken",
	})

	results, err := validator.NewValidator(dir).Validate()
	require.NoError(t, err)
	assert.True(t, containsLine(results.Errors, "error reading card file cards.json"))
}

func TestValidate_NoExpansions(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"catalog.toml": goodManifest + "\n[[expansions]]\nname = \"Ghost\"\n",
		"cards.json":   `[{"id": "1", "name": "A", "rarity": "Rare"}]`,
	})

	results, err := validator.NewValidator(dir).Validate()
	require.NoError(t, err)
	assert.True(t, results.OK())
	assert.True(t, containsLine(results.Warnings, "no openable expansions"))
	assert.True(t, containsLine(results.Warnings, "expansions entry Ghost"))
	assert.True(t, containsLine(results.Warnings, "catalog has no cards in: Secret Rare, Ultra Rare, Rare Holo, Uncommon, Common"))
}
