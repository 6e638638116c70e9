package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// defaultPrompts holds the embedded prompt templates, written out to
// the prompts directory on first use so users can customise them.
var defaultPrompts = map[string]string{
	driven.PromptExtraction: `You are a medical records analyst. Extract every dated medical event from the text.
Return ONLY a JSON array, no prose. Each element:
{"date": "YYYY-MM-DD", "institution": "name or empty", "description": "what happened", "confidence": 0.0-1.0}
Skip events whose date cannot be determined.`,
}

// PromptStore loads prompt templates from user-editable text files,
// materialising embedded defaults on first access.
type PromptStore struct {
	mu       sync.RWMutex
	dir      string
	cache    map[string]string
	initOnce sync.Once
	initErr  error
}

// NewPromptStore creates a prompt store rooted at dir. If dir is
// empty, defaults to ~/.chronicle/prompts. The directory is created
// lazily on first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".chronicle", "prompts")
	}

	return &PromptStore{
		dir:   dir,
		cache: make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name. The first call
// materialises the defaults into the prompts directory; subsequent
// calls serve from an in-memory cache.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.init)
	if s.initErr != nil {
		return "", s.initErr
	}

	s.mu.RLock()
	if p, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if p, ok := s.cache[name]; ok {
		return p, nil
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			if def, ok := defaultPrompts[name]; ok {
				s.cache[name] = def
				return def, nil
			}
			return "", fmt.Errorf("unknown prompt %q", name)
		}
		return "", err
	}

	p := string(data)
	s.cache[name] = p
	return p, nil
}

// init creates the prompts directory and writes out default templates
// that do not exist yet, so users have files to edit.
func (s *PromptStore) init() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.initErr = err
		return
	}

	for name, content := range defaultPrompts {
		path := s.path(name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			s.initErr = err
			return
		}
	}

	s.initErr = s.createReadme()
}

// createReadme writes a short note explaining how prompt files work.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.dir, "README.md")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	content := `# Chronicle Prompts

Each .txt file in this directory is a prompt template used by the
analysis pipeline. Edit a file to customise the corresponding prompt;
delete it to restore the built-in default on the next run.

Prompts are cached per process, so a running analysis picks up edits
only after restart.
`
	return os.WriteFile(path, []byte(content), 0600)
}

// Reload drops the cache so the next Load re-reads prompt files.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]string)
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}
