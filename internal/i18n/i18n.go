package i18n

import (
	"strings"
	"sync"

	"github.com/iamwavecut/pquota/resources"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const translationsFile = "i18n/translations.yml"

var state = struct {
	sync.RWMutex
	translations    map[string]map[string]string
	loaded          bool
	defaultLanguage string
}{
	defaultLanguage: "en",
}

// SetDefaultLanguage sets the fallback used when a caller passes an empty language.
func SetDefaultLanguage(lang string) {
	state.Lock()
	defer state.Unlock()
	state.defaultLanguage = strings.ToLower(lang)
}

func DefaultLanguage() string {
	state.RLock()
	defer state.RUnlock()
	return state.defaultLanguage
}

func load() {
	content, err := resources.FS.ReadFile(translationsFile)
	if err != nil {
		log.WithError(err).Errorln("cant load i18n")
		state.loaded = true
		return
	}
	translations := make(map[string]map[string]string)
	if err := yaml.Unmarshal(content, &translations); err != nil {
		log.WithError(err).Errorln("cant unmarshal i18n")
		state.loaded = true
		return
	}
	state.translations = translations
	state.loaded = true
}

// Get returns the translation of key for lang, falling back to key itself.
func Get(key, lang string) string {
	if lang == "" {
		lang = DefaultLanguage()
	}
	lang = strings.ToLower(lang)
	if lang == "en" {
		return key
	}

	state.Lock()
	if !state.loaded {
		load()
	}
	res, ok := state.translations[key][strings.ToUpper(lang)]
	state.Unlock()

	if ok && res != "" {
		return res
	}
	log.Tracef(`no translation for key "%s"`, key)
	return key
}
