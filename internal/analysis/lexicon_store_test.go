package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLexiconStore(t *testing.T) {
	store := NewLexiconStore("./lexicons")
	assert.NotNil(t, store)
	assert.Equal(t, "./lexicons", store.dataDir)
}

func TestLexiconStore_LoadLexicon(t *testing.T) {
	tempDir := t.TempDir()
	store := NewLexiconStore(tempDir)

	tests := []struct {
		name     string
		file     string
		content  string
		wantErr  bool
		validate func(t *testing.T, lex Lexicon)
	}{
		{
			name: "missing file falls back to defaults",
			validate: func(t *testing.T, lex Lexicon) {
				assert.Equal(t, DefaultLexicon(), lex)
			},
		},
		{
			name: "partial file keeps default lists",
			file: "partial",
			content: `language: tr
uncertainty:
  - herhalde
`,
			validate: func(t *testing.T, lex Lexicon) {
				assert.Equal(t, []string{"herhalde"}, lex.Uncertainty)
				assert.Equal(t, DefaultLexicon().Negative, lex.Negative)
				assert.Equal(t, turkishAlphabet, lex.Alphabet)
			},
		},
		{
			name:    "malformed yaml",
			file:    "broken",
			content: "uncertainty: [unterminated",
			wantErr: true,
		},
		{
			name:    "invalid language tag",
			file:    "badlang",
			content: "language: \"!!\"\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locale := "absent"
			if tt.file != "" {
				locale = tt.file
				require.NoError(t, os.WriteFile(filepath.Join(tempDir, locale+".yaml"), []byte(tt.content), 0o644))
			}

			lex, err := store.LoadLexicon(locale)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, lex)
		})
	}
}

func TestLexiconStore_SaveAndLoad(t *testing.T) {
	store := NewLexiconStore(filepath.Join(t.TempDir(), "nested", "lexicons"))

	lex := Lexicon{
		Language:    "en",
		Alphabet:    "abcdefghijklmnopqrstuvwxyz",
		Uncertainty: []string{"maybe"},
		Evasion:     []string{"no comment"},
		Positive:    []string{"happy"},
		Negative:    []string{"sad"},
	}
	require.NoError(t, store.SaveLexicon("en", lex))

	loaded, err := store.LoadLexicon("en")
	require.NoError(t, err)
	assert.Equal(t, lex, loaded)
}

func TestLexiconStore_BootstrapLexicons(t *testing.T) {
	tempDir := t.TempDir()
	store := NewLexiconStore(tempDir)

	custom := DefaultLexicon()
	custom.Uncertainty = []string{"herhalde"}
	require.NoError(t, store.SaveLexicon("tr", custom))

	err := store.BootstrapLexicons(map[string]Lexicon{
		"tr": DefaultLexicon(),
		"en": {Language: "en", Alphabet: "abcdefghijklmnopqrstuvwxyz", Uncertainty: []string{"maybe"}},
	})
	require.NoError(t, err)

	tr, err := store.LoadLexicon("tr")
	require.NoError(t, err)
	assert.Equal(t, []string{"herhalde"}, tr.Uncertainty, "existing file must not be overwritten")

	_, err = os.Stat(filepath.Join(tempDir, "en.yaml"))
	assert.NoError(t, err)
}
