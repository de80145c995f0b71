package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

type Translations map[string]string

type Language struct {
	found bool
	tr    Translations
}

// TransPool lazily loads per-language dictionaries from <basePath>/<lang>.json.
// A missing dictionary is not an error; lookups fall through to the source
// string.
type TransPool struct {
	basePath  string
	mutex     sync.Mutex
	languages map[string]*Language
}

func NewTransPool(basePath string) *TransPool {
	return &TransPool{
		basePath:  basePath,
		languages: make(map[string]*Language),
	}
}

func (tp *TransPool) Get(lang string) *Language {
	tp.mutex.Lock()
	defer tp.mutex.Unlock()
	l, ok := tp.languages[lang]
	if !ok {
		l = tp.load(lang)
		tp.languages[lang] = l
	}
	return l
}

func (tp *TransPool) load(lang string) *Language {
	l := &Language{tr: make(Translations)}
	raw, err := os.ReadFile(filepath.Join(tp.basePath, lang+".json"))
	if err != nil {
		return l
	}
	if err := json.Unmarshal(raw, &l.tr); err != nil {
		return l
	}
	l.found = true
	return l
}

func (l *Language) Lang(text string) string {
	if !l.found {
		return text
	}
	res, ok := l.tr[text]
	if !ok {
		return text
	}
	return res
}
