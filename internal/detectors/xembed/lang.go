package xembed

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// hugoToX maps Hugo languageCode values to languages supported by X embeds.
var hugoToX = map[string]string{
	"ar": "ar", "bn": "bn", "cs": "cs", "da": "da", "de": "de", "el": "el",
	"en": "en", "en-us": "en", "en-gb": "en-gb", "es": "es", "fa": "fa",
	"fi": "fi", "fil": "fil", "fr": "fr", "he": "he", "hi": "hi", "hu": "hu",
	"id": "id", "it": "it", "ja": "ja", "ja-jp": "ja", "ko": "ko", "ko-kr": "ko",
	"msa": "msa", "nl": "nl", "no": "no", "pl": "pl", "pt": "pt", "ro": "ro",
	"ru": "ru", "sv": "sv", "th": "th", "tr": "tr", "uk": "uk", "ur": "ur",
	"vi": "vi", "zh-cn": "zh-cn", "zh-tw": "zh-tw",
}

var hugoConfigFiles = []string{"hugo.toml", "config.toml"}

// DetectHugoLanguage returns the X language matching the site's languageCode,
// or "" if there is no config or the code is unsupported.
func DetectHugoLanguage(siteRoot string) string {
	for _, name := range hugoConfigFiles {
		v := viper.New()
		v.SetConfigFile(filepath.Join(siteRoot, name))
		v.SetConfigType("toml")

		if err := v.ReadInConfig(); err != nil {
			continue
		}

		code := strings.ToLower(v.GetString("languageCode"))
		if code == "" {
			continue
		}

		if lang, ok := hugoToX[code]; ok {
			slog.Debug("Detected Hugo language", "config", name, "languageCode", code, "lang", lang)
			return lang
		}
	}

	return ""
}
