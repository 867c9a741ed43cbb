// Package locales holds the embedded message bundle for user-visible replies.
package locales

import (
	"embed"
	"encoding/json"
	"log"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed *.json
var localeFS embed.FS

var (
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
)

// Init initializes the i18n bundle by loading the embedded language files
// and setting the default language.
func Init(defaultLangCode string) {
	var err error
	defaultLanguage, err = language.Parse(defaultLangCode)
	if err != nil {
		log.Printf("WARN: Failed to parse default language code %q: %v. Falling back to English.", defaultLangCode, err)
		defaultLanguage = language.English
	}

	bundle = i18n.NewBundle(defaultLanguage)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir(".")
	if err != nil {
		log.Fatalf("Failed to read embedded locales directory: %v", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, entry.Name()); err != nil {
			log.Printf("WARN: Failed to load message file %q: %v", entry.Name(), err)
			continue
		}
		loaded++
	}
	if loaded == 0 {
		log.Fatalf("No message files loaded from locales/")
	}
	log.Printf("i18n bundle initialized with %d file(s). Default language: %s", loaded, defaultLanguage)
}

// DefaultLanguageTag returns the configured default language tag.
func DefaultLanguageTag() language.Tag {
	if bundle == nil {
		log.Panicln("Attempted to get default language tag before i18n bundle initialization.")
	}
	return defaultLanguage
}

// NewLocalizer creates a localizer for the given language preferences.
func NewLocalizer(langPrefs ...string) *i18n.Localizer {
	if bundle == nil {
		log.Panicln("Attempted to create localizer before i18n bundle initialization.")
	}
	return i18n.NewLocalizer(bundle, langPrefs...)
}

// GetMessage retrieves and formats a message by its ID using the provided
// localizer, falling back to English and finally to the message ID itself.
func GetMessage(localizer *i18n.Localizer, msgID string, templateData map[string]interface{}) string {
	config := &i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: templateData,
	}

	localizedMsg, err := localizer.Localize(config)
	if err != nil {
		englishLocalizer := i18n.NewLocalizer(bundle, language.English.String())
		if fallbackMsg, fallbackErr := englishLocalizer.Localize(config); fallbackErr == nil {
			return fallbackMsg
		}
		log.Printf("ERROR: Failed to localize message ID %q: %v. Returning ID.", msgID, err)
		return msgID
	}
	return localizedMsg
}
