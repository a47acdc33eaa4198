package domain

import "fmt"

// Language is a supported response language code.
type Language string

// BaseLanguage is the language response templates are authored in.
const BaseLanguage Language = "en"

// SupportedLanguages is the closed set of selectable language codes.
var SupportedLanguages = []Language{
	"en", "hi", "fr", "es", "ru", "de", "zh", "ja", "ko", "ar",
	"pt", "it", "tr", "pl", "nl", "sv", "no", "da", "fi",
}

var supportedLanguageSet = func() map[Language]struct{} {
	set := make(map[Language]struct{}, len(SupportedLanguages))
	for _, l := range SupportedLanguages {
		set[l] = struct{}{}
	}
	return set
}()

// ParseLanguage validates a language code against SupportedLanguages.
func ParseLanguage(code string) (Language, error) {
	l := Language(code)
	if !l.IsSupported() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return l, nil
}

// IsSupported reports whether the code belongs to the supported set.
func (l Language) IsSupported() bool {
	_, ok := supportedLanguageSet[l]
	return ok
}

// IsBase reports whether the language is the base language.
func (l Language) IsBase() bool {
	return l == BaseLanguage
}

func (l Language) String() string {
	return string(l)
}
