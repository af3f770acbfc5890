package jsgf

import (
	"fmt"
	"io/fs"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	homedir "github.com/mitchellh/go-homedir"
)

// GrammarSet is an aggregate of loaded grammars, keyed by grammar name,
// with the cross-grammar import wiring a single grammar cannot do for
// itself.
type GrammarSet struct {
	Mu       sync.Mutex
	grammars map[string]*Grammar
}

func newGrammarSet() *GrammarSet {
	return &GrammarSet{grammars: make(map[string]*Grammar)}
}

// Get returns the grammar named name, if loaded.
func (s *GrammarSet) Get(name string) (*Grammar, bool) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	g, ok := s.grammars[name]
	return g, ok
}

// Names returns every grammar name currently in the set.
func (s *GrammarSet) Names() iter.Seq[string] {
	s.Mu.Lock()
	names := maps.Keys(maps.Clone(s.grammars))
	s.Mu.Unlock()
	return names
}

// put registers or replaces a grammar and re-resolves imports, since an
// import naming g may have been waiting on it.
func (s *GrammarSet) put(g *Grammar) {
	s.grammars[g.name] = g
	for _, other := range s.grammars {
		for _, imp := range other.imports {
			og, ok := s.grammars[imp.GrammarName]
			if !ok {
				continue
			}
			if other.importedGrammars == nil {
				other.importedGrammars = make(map[string]*Grammar)
			}
			other.importedGrammars[imp.GrammarName] = og
		}
	}
}

// Resolve walks every grammar's imports and wires their importedGrammars
// map to the matching loaded Grammar, so NamedRuleRef lookups through an
// import can succeed. Returns a ReferenceError for the first import that
// names a grammar not present in the set.
func (s *GrammarSet) Resolve() error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	for _, g := range s.grammars {
		if g.importedGrammars == nil {
			g.importedGrammars = make(map[string]*Grammar)
		}
		for _, imp := range g.imports {
			og, ok := s.grammars[imp.GrammarName]
			if !ok {
				return &ReferenceError{RuleName: imp.RuleName, GrammarName: imp.GrammarName}
			}
			if !imp.IsWildcard() {
				if _, ok := og.rules[imp.RuleName]; !ok {
					return &ReferenceError{RuleName: imp.RuleName, GrammarName: imp.GrammarName}
				}
			}
			g.importedGrammars[imp.GrammarName] = og
		}
	}
	return nil
}

// Loader reads .jsgf files from the filesystem into a GrammarSet.
type Loader struct{}

// NewLoader returns an empty Loader. Loader carries no state of its own;
// all loaded data lives in the GrammarSet each Load call returns.
func NewLoader() *Loader { return &Loader{} }

func loadGrammarFile(pathname string) (*Grammar, error) {
	content, err := os.ReadFile(pathname)
	if err != nil {
		return nil, err
	}
	return ParseGrammar(string(content))
}

// Load parses every path yielded by paths as a JSGF grammar and collects
// them into a GrammarSet. A file that fails to parse is skipped; callers
// that need per-file diagnostics should parse individually with
// ParseGrammar instead.
func (l *Loader) Load(paths iter.Seq[string]) (*GrammarSet, error) {
	set := newGrammarSet()
	for pathname := range paths {
		g, err := loadGrammarFile(pathname)
		if err != nil {
			continue
		}
		set.put(g)
	}
	if len(set.grammars) == 0 {
		return set, fmt.Errorf("jsgf: no grammars loaded")
	}
	return set, nil
}

// LoadDir loads every ".jsgf" file in dir (optionally walking
// subdirectories) into a GrammarSet. dir may begin with "~" or "~user",
// expanded via go-homedir.
func (l *Loader) LoadDir(dir string, walk bool) (*GrammarSet, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, err
	}
	if walk {
		return l.Load(func(yield func(string) bool) {
			filepath.WalkDir(expanded, func(pathname string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				if filepath.Ext(pathname) != ".jsgf" {
					return nil
				}
				if !yield(pathname) {
					return filepath.SkipAll
				}
				return nil
			})
		})
	}
	return l.Load(func(yield func(string) bool) {
		entries, err := os.ReadDir(expanded)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsgf" {
				continue
			}
			if !yield(filepath.Join(expanded, entry.Name())) {
				return
			}
		}
	})
}

// Watcher reloads a single changed grammar file into its owning
// GrammarSet without touching the others.
type Watcher struct {
	fsw  *fsnotify.Watcher
	set  *GrammarSet
	done chan struct{}
}

// Watch starts watching dir for ".jsgf" file changes, reloading the
// affected grammar into set on each write event. Callers that also mutate
// set directly must hold set.Mu for the duration.
func Watch(dir string, set *GrammarSet) (*Watcher, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(expanded); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{fsw: fsw, set: set, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Ext(ev.Name) != ".jsgf" {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			g, err := loadGrammarFile(ev.Name)
			if err != nil {
				continue
			}
			w.set.Mu.Lock()
			w.set.put(g)
			w.set.Mu.Unlock()
		case <-w.fsw.Errors:
			continue
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher's event loop and releases its fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
