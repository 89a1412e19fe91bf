package i18n

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/pakhadai/wartovyi/resources"
)

// Get is called from the update loop and from challenge expiry timers,
// the lock keeps lazy loading safe for both.
var state = struct {
	mu           sync.Mutex
	translations map[string]map[string]string
	loaded       map[string]bool
}{
	translations: make(map[string]map[string]string),
	loaded:       make(map[string]bool),
}

// fallbacks orders lookup per language. Mutually intelligible languages
// borrow from each other before giving up and returning the English key.
var fallbacks = map[string][]string{
	"uk": {"uk", "ru"},
	"ru": {"ru", "uk"},
	"be": {"ru", "uk"},
	"kk": {"ru"},
}

// load expects the caller to hold state.mu.
func load(lang string) {
	if state.loaded[lang] {
		return
	}
	state.loaded[lang] = true

	raw, err := resources.FS.ReadFile(fmt.Sprintf("i18n/%s.yml", lang))
	if err != nil {
		log.WithError(err).Errorln("cant load i18n")
		return
	}
	translations := make(map[string]string)
	if err := yaml.Unmarshal(raw, &translations); err != nil {
		log.WithError(err).Errorln("cant unmarshal i18n")
		return
	}
	state.translations[lang] = translations
}

// Get translates the English key into lang, walking the fallback chain.
// English and unknown languages return the key itself.
func Get(key, lang string) string {
	if "en" == lang {
		return key
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	for _, candidate := range fallbacks[lang] {
		load(candidate)
		if res, ok := state.translations[candidate][key]; ok {
			return res
		}
	}
	log.Tracef(`no translation for key %q`, key)
	return key
}

// Resolve picks the effective language for a reply: the chat's declared
// language when supported, then the user's client language, then English.
func Resolve(declared, detected string) string {
	for _, lang := range []string{declared, detected} {
		if lang == "en" {
			return lang
		}
		if _, ok := fallbacks[lang]; ok {
			return lang
		}
	}
	return "en"
}
