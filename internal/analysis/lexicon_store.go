package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LexiconStore manages lexicon files by locale
type LexiconStore struct {
	dataDir string
}

// NewLexiconStore creates a new lexicon store rooted at dataDir
func NewLexiconStore(dataDir string) *LexiconStore {
	return &LexiconStore{dataDir: dataDir}
}

func (s *LexiconStore) path(locale string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s.yaml", locale))
}

// LoadLexicon loads <dataDir>/<locale>.yaml. A missing file yields the default
// lexicon; lists left empty in the file are filled from the defaults.
func (s *LexiconStore) LoadLexicon(locale string) (Lexicon, error) {
	raw, err := os.ReadFile(s.path(locale))
	if os.IsNotExist(err) {
		return DefaultLexicon(), nil
	}
	if err != nil {
		return Lexicon{}, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("failed to decode lexicon %s: %w", locale, err)
	}
	lex = lex.withDefaults()

	if _, err := compileLexicon(lex); err != nil {
		return Lexicon{}, fmt.Errorf("invalid lexicon %s: %w", locale, err)
	}
	return lex, nil
}

// SaveLexicon writes a lexicon for a locale, creating the directory if needed
func (s *LexiconStore) SaveLexicon(locale string, lex Lexicon) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create lexicon directory: %w", err)
	}

	out, err := yaml.Marshal(lex)
	if err != nil {
		return fmt.Errorf("failed to encode lexicon: %w", err)
	}
	if err := os.WriteFile(s.path(locale), out, 0o644); err != nil {
		return fmt.Errorf("failed to write lexicon file: %w", err)
	}
	return nil
}

// BootstrapLexicons writes every given lexicon that has no file yet.
func (s *LexiconStore) BootstrapLexicons(lexicons map[string]Lexicon) error {
	for locale, lex := range lexicons {
		if _, err := os.Stat(s.path(locale)); err == nil {
			continue
		}
		if err := s.SaveLexicon(locale, lex); err != nil {
			return fmt.Errorf("failed to save lexicon for %s: %w", locale, err)
		}
	}
	return nil
}
