// Package metadata reads, writes and validates fastlane app-store metadata:
// one directory per store locale holding one text file per field
// (title.txt, short_description.txt, ...).
package metadata

import (
	"fmt"
	"path/filepath"
)

// Platform is an app store.
type Platform string

const (
	Android Platform = "android"
	IOS     Platform = "ios"
)

// Platforms lists every supported platform.
var Platforms = []Platform{Android, IOS}

// ParsePlatform validates a platform name.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case Android, IOS:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform %q (want android or ios)", s)
}

// DefaultRoot returns the fastlane metadata directory of p, relative to the
// project root.
func (p Platform) DefaultRoot() string {
	if p == IOS {
		return filepath.Join("ios", "fastlane", "metadata")
	}
	return filepath.Join("android", "fastlane", "metadata", "android")
}

// FieldType distinguishes plain text from URL fields.
type FieldType string

const (
	TypeText FieldType = "text"
	TypeURL  FieldType = "url"
)

// Field describes one metadata file.
type Field struct {
	FileName  string
	MaxLength int // 0 = unlimited
	Optional  bool
	Type      FieldType
}

// AndroidFields are the Play Store listing files.
var AndroidFields = []Field{
	{FileName: "title.txt", MaxLength: 30, Type: TypeText},
	{FileName: "short_description.txt", MaxLength: 80, Type: TypeText},
	{FileName: "full_description.txt", MaxLength: 4000, Type: TypeText},
	{FileName: "video.txt", Optional: true, Type: TypeURL},
}

// IOSFields are the App Store listing files.
var IOSFields = []Field{
	{FileName: "name.txt", MaxLength: 30, Type: TypeText},
	{FileName: "subtitle.txt", MaxLength: 30, Optional: true, Type: TypeText},
	{FileName: "description.txt", MaxLength: 4000, Type: TypeText},
	{FileName: "keywords.txt", MaxLength: 100, Type: TypeText},
	{FileName: "promotional_text.txt", MaxLength: 170, Optional: true, Type: TypeText},
	{FileName: "release_notes.txt", MaxLength: 4000, Optional: true, Type: TypeText},
	{FileName: "support_url.txt", Type: TypeURL},
	{FileName: "marketing_url.txt", Optional: true, Type: TypeURL},
	{FileName: "privacy_url.txt", Optional: true, Type: TypeURL},
}

// Fields returns the field table of p.
func (p Platform) Fields() []Field {
	if p == IOS {
		return IOSFields
	}
	return AndroidFields
}

// Field looks up a field of p by file name.
func (p Platform) Field(fileName string) (Field, bool) {
	for _, f := range p.Fields() {
		if f.FileName == fileName {
			return f, true
		}
	}
	return Field{}, false
}

// Locale is a store locale and the catalog language used to translate it.
// Language is empty when the provider has no matching language.
type Locale struct {
	Name     string
	Locale   string
	Language string
}

// AndroidLocales are the Play Console listing locales.
var AndroidLocales = []Locale{
	{Name: "Afrikaans", Locale: "af", Language: "af"},
	{Name: "Albanian", Locale: "sq", Language: "sq"},
	{Name: "Amharic", Locale: "am", Language: "am"},
	{Name: "Arabic", Locale: "ar", Language: "ar"},
	{Name: "Armenian", Locale: "hy-AM", Language: "hy"},
	{Name: "Azerbaijani", Locale: "az-AZ", Language: "az"},
	{Name: "Bangla", Locale: "bn-BD", Language: "bn"},
	{Name: "Basque", Locale: "eu-ES", Language: "eu"},
	{Name: "Belarusian", Locale: "be", Language: "be"},
	{Name: "Bulgarian", Locale: "bg", Language: "bg"},
	{Name: "Burmese", Locale: "my-MM", Language: "my"},
	{Name: "Catalan", Locale: "ca", Language: "ca"},
	{Name: "Chinese (Hong Kong)", Locale: "zh-HK", Language: "zh_TW"},
	{Name: "Chinese (Simplified)", Locale: "zh-CN", Language: "zh_CN"},
	{Name: "Chinese (Traditional)", Locale: "zh-TW", Language: "zh_TW"},
	{Name: "Croatian", Locale: "hr", Language: "hr"},
	{Name: "Czech", Locale: "cs-CZ", Language: "cs"},
	{Name: "Danish", Locale: "da-DK", Language: "da"},
	{Name: "Dutch", Locale: "nl-NL", Language: "nl"},
	{Name: "English (India)", Locale: "en-IN", Language: "en"},
	{Name: "English (Singapore)", Locale: "en-SG", Language: "en"},
	{Name: "English (South Africa)", Locale: "en-ZA", Language: "en"},
	{Name: "English (Australia)", Locale: "en-AU", Language: "en"},
	{Name: "English (Canada)", Locale: "en-CA", Language: "en"},
	{Name: "English (United Kingdom)", Locale: "en-GB", Language: "en"},
	{Name: "English (United States)", Locale: "en-US", Language: "en"},
	{Name: "Estonian", Locale: "et", Language: "et"},
	{Name: "Filipino", Locale: "fil", Language: "fil"},
	{Name: "Finnish", Locale: "fi-FI", Language: "fi"},
	{Name: "French (Canada)", Locale: "fr-CA", Language: "fr"},
	{Name: "French (France)", Locale: "fr-FR", Language: "fr"},
	{Name: "Galician", Locale: "gl-ES", Language: "gl"},
	{Name: "Georgian", Locale: "ka-GE", Language: "ka"},
	{Name: "German", Locale: "de-DE", Language: "de"},
	{Name: "Greek", Locale: "el-GR", Language: "el"},
	{Name: "Gujarati", Locale: "gu", Language: "gu"},
	{Name: "Hebrew", Locale: "iw-IL", Language: "he"},
	{Name: "Hindi", Locale: "hi-IN", Language: "hi"},
	{Name: "Hungarian", Locale: "hu-HU", Language: "hu"},
	{Name: "Icelandic", Locale: "is-IS", Language: "is"},
	{Name: "Indonesian", Locale: "id", Language: "id"},
	{Name: "Italian", Locale: "it-IT", Language: "it"},
	{Name: "Japanese", Locale: "ja-JP", Language: "ja"},
	{Name: "Kannada", Locale: "kn-IN", Language: "kn"},
	{Name: "Kazakh", Locale: "kk", Language: "kk"},
	{Name: "Khmer", Locale: "km-KH", Language: "km"},
	{Name: "Korean", Locale: "ko-KR", Language: "ko"},
	{Name: "Kyrgyz", Locale: "ky-KG", Language: "ky"},
	{Name: "Lao", Locale: "lo-LA", Language: "lo"},
	{Name: "Latvian", Locale: "lv", Language: "lv"},
	{Name: "Lithuanian", Locale: "lt", Language: "lt"},
	{Name: "Macedonian", Locale: "mk-MK", Language: "mk"},
	{Name: "Malay", Locale: "ms", Language: "ms"},
	{Name: "Malay (Malaysia)", Locale: "ms-MY", Language: "ms"},
	{Name: "Malayalam", Locale: "ml-IN", Language: "ml"},
	{Name: "Marathi", Locale: "mr-IN", Language: "mr"},
	{Name: "Mongolian", Locale: "mn-MN", Language: "mn"},
	{Name: "Nepali", Locale: "ne-NP", Language: "ne"},
	{Name: "Norwegian", Locale: "no-NO", Language: "no"},
	{Name: "Persian", Locale: "fa", Language: "fa"},
	{Name: "Persian (AE)", Locale: "fa-AE", Language: "fa"},
	{Name: "Persian (AF)", Locale: "fa-AF", Language: "fa"},
	{Name: "Persian (IR)", Locale: "fa-IR", Language: "fa"},
	{Name: "Polish", Locale: "pl-PL", Language: "pl"},
	{Name: "Portuguese (Brazil)", Locale: "pt-BR", Language: "pt_BR"},
	{Name: "Portuguese (Portugal)", Locale: "pt-PT", Language: "pt_PT"},
	{Name: "Punjabi", Locale: "pa", Language: "pa"},
	{Name: "Romanian", Locale: "ro", Language: "ro"},
	{Name: "Romansh", Locale: "rm"},
	{Name: "Russian", Locale: "ru-RU", Language: "ru"},
	{Name: "Serbian", Locale: "sr", Language: "sr"},
	{Name: "Sinhala", Locale: "si-LK", Language: "si"},
	{Name: "Slovak", Locale: "sk", Language: "sk"},
	{Name: "Slovenian", Locale: "sl", Language: "sl"},
	{Name: "Spanish (Latin America)", Locale: "es-419", Language: "es"},
	{Name: "Spanish (Spain)", Locale: "es-ES", Language: "es"},
	{Name: "Spanish (United States)", Locale: "es-US", Language: "es"},
	{Name: "Swahili", Locale: "sw", Language: "sw"},
	{Name: "Swedish", Locale: "sv-SE", Language: "sv"},
	{Name: "Tamil", Locale: "ta-IN", Language: "ta"},
	{Name: "Telugu", Locale: "te-IN", Language: "te"},
	{Name: "Thai", Locale: "th", Language: "th"},
	{Name: "Turkish", Locale: "tr-TR", Language: "tr"},
	{Name: "Ukrainian", Locale: "uk", Language: "uk"},
	{Name: "Urdu", Locale: "ur", Language: "ur"},
	{Name: "Vietnamese", Locale: "vi", Language: "vi"},
	{Name: "Zulu", Locale: "zu", Language: "zu"},
}

// IOSLocales are the App Store Connect localizations.
var IOSLocales = []Locale{
	{Name: "Arabic", Locale: "ar-SA", Language: "ar"},
	{Name: "Catalan", Locale: "ca", Language: "ca"},
	{Name: "Chinese (Simplified)", Locale: "zh-Hans", Language: "zh_Hans"},
	{Name: "Chinese (Traditional)", Locale: "zh-Hant", Language: "zh_Hant"},
	{Name: "Croatian", Locale: "hr", Language: "hr"},
	{Name: "Czech", Locale: "cs", Language: "cs"},
	{Name: "Danish", Locale: "da", Language: "da"},
	{Name: "Dutch", Locale: "nl-NL", Language: "nl"},
	{Name: "English (Australia)", Locale: "en-AU", Language: "en"},
	{Name: "English (Canada)", Locale: "en-CA", Language: "en"},
	{Name: "English (U.K.)", Locale: "en-GB", Language: "en"},
	{Name: "English (U.S.)", Locale: "en-US", Language: "en"},
	{Name: "Finnish", Locale: "fi", Language: "fi"},
	{Name: "French", Locale: "fr-FR", Language: "fr"},
	{Name: "French (Canada)", Locale: "fr-CA", Language: "fr"},
	{Name: "German", Locale: "de-DE", Language: "de"},
	{Name: "Greek", Locale: "el", Language: "el"},
	{Name: "Hebrew", Locale: "he", Language: "he"},
	{Name: "Hindi", Locale: "hi", Language: "hi"},
	{Name: "Hungarian", Locale: "hu", Language: "hu"},
	{Name: "Indonesian", Locale: "id", Language: "id"},
	{Name: "Italian", Locale: "it", Language: "it"},
	{Name: "Japanese", Locale: "ja", Language: "ja"},
	{Name: "Korean", Locale: "ko", Language: "ko"},
	{Name: "Malay", Locale: "ms", Language: "ms"},
	{Name: "Norwegian", Locale: "no", Language: "no"},
	{Name: "Polish", Locale: "pl", Language: "pl"},
	{Name: "Portuguese (Brazil)", Locale: "pt-BR", Language: "pt_BR"},
	{Name: "Portuguese (Portugal)", Locale: "pt-PT", Language: "pt_PT"},
	{Name: "Romanian", Locale: "ro", Language: "ro"},
	{Name: "Russian", Locale: "ru", Language: "ru"},
	{Name: "Slovak", Locale: "sk", Language: "sk"},
	{Name: "Spanish (Mexico)", Locale: "es-MX", Language: "es"},
	{Name: "Spanish (Spain)", Locale: "es-ES", Language: "es"},
	{Name: "Swedish", Locale: "sv", Language: "sv"},
	{Name: "Thai", Locale: "th", Language: "th"},
	{Name: "Turkish", Locale: "tr", Language: "tr"},
	{Name: "Ukrainian", Locale: "uk", Language: "uk"},
	{Name: "Vietnamese", Locale: "vi", Language: "vi"},
}

// Locales returns the locale table of p.
func (p Platform) Locales() []Locale {
	if p == IOS {
		return IOSLocales
	}
	return AndroidLocales
}

// LookupLocale finds a store locale of p.
func (p Platform) LookupLocale(locale string) (Locale, bool) {
	for _, l := range p.Locales() {
		if l.Locale == locale {
			return l, true
		}
	}
	return Locale{}, false
}
