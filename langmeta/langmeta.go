// Package langmeta provides the language catalog shared by ARB files,
// app-store metadata and the translation provider.
//
// Every language is identified by its ARB code (the code used in @@locale
// and in file names such as app_pt_BR.arb). Each entry also carries the
// language identifier expected by Google Translate, which differs from the
// ARB code for a handful of languages (zh_Hans -> zh-CN, fil -> tl, ...).
package langmeta

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// ErrUnknownLanguage is returned when a code does not resolve to a catalog entry.
var ErrUnknownLanguage = errors.New("unsupported language code")

// Language describes a supported language.
type Language struct {
	// Code is the ARB language code (e.g. "de", "pt_BR", "zh_Hant").
	Code string
	// Name is the English display name.
	Name string
	// TranslateTag is the Google Translate language identifier.
	TranslateTag string
}

// String returns "Name (code)".
func (l Language) String() string {
	return fmt.Sprintf("%s (%s)", l.Name, l.Code)
}

// Registry contains every supported language, keyed by ARB code.
var Registry = map[string]Language{
	"af":      {Code: "af", Name: "Afrikaans", TranslateTag: "af"},
	"am":      {Code: "am", Name: "Amharic", TranslateTag: "am"},
	"ar":      {Code: "ar", Name: "Arabic", TranslateTag: "ar"},
	"as":      {Code: "as", Name: "Assamese", TranslateTag: "as"},
	"az":      {Code: "az", Name: "Azerbaijani", TranslateTag: "az"},
	"be":      {Code: "be", Name: "Belarusian", TranslateTag: "be"},
	"bg":      {Code: "bg", Name: "Bulgarian", TranslateTag: "bg"},
	"bn":      {Code: "bn", Name: "Bengali", TranslateTag: "bn"},
	"bs":      {Code: "bs", Name: "Bosnian", TranslateTag: "bs"},
	"ca":      {Code: "ca", Name: "Catalan", TranslateTag: "ca"},
	"cs":      {Code: "cs", Name: "Czech", TranslateTag: "cs"},
	"cy":      {Code: "cy", Name: "Welsh", TranslateTag: "cy"},
	"da":      {Code: "da", Name: "Danish", TranslateTag: "da"},
	"de":      {Code: "de", Name: "German", TranslateTag: "de"},
	"el":      {Code: "el", Name: "Greek", TranslateTag: "el"},
	"en":      {Code: "en", Name: "English", TranslateTag: "en"},
	"es":      {Code: "es", Name: "Spanish", TranslateTag: "es"},
	"et":      {Code: "et", Name: "Estonian", TranslateTag: "et"},
	"eu":      {Code: "eu", Name: "Basque", TranslateTag: "eu"},
	"fa":      {Code: "fa", Name: "Persian", TranslateTag: "fa"},
	"fi":      {Code: "fi", Name: "Finnish", TranslateTag: "fi"},
	"fil":     {Code: "fil", Name: "Filipino", TranslateTag: "tl"},
	"fr":      {Code: "fr", Name: "French", TranslateTag: "fr"},
	"ga":      {Code: "ga", Name: "Irish", TranslateTag: "ga"},
	"gl":      {Code: "gl", Name: "Galician", TranslateTag: "gl"},
	"gu":      {Code: "gu", Name: "Gujarati", TranslateTag: "gu"},
	"ha":      {Code: "ha", Name: "Hausa", TranslateTag: "ha"},
	"he":      {Code: "he", Name: "Hebrew", TranslateTag: "iw"},
	"hi":      {Code: "hi", Name: "Hindi", TranslateTag: "hi"},
	"hr":      {Code: "hr", Name: "Croatian", TranslateTag: "hr"},
	"hu":      {Code: "hu", Name: "Hungarian", TranslateTag: "hu"},
	"hy":      {Code: "hy", Name: "Armenian", TranslateTag: "hy"},
	"id":      {Code: "id", Name: "Indonesian", TranslateTag: "id"},
	"ig":      {Code: "ig", Name: "Igbo", TranslateTag: "ig"},
	"is":      {Code: "is", Name: "Icelandic", TranslateTag: "is"},
	"it":      {Code: "it", Name: "Italian", TranslateTag: "it"},
	"ja":      {Code: "ja", Name: "Japanese", TranslateTag: "ja"},
	"jv":      {Code: "jv", Name: "Javanese", TranslateTag: "jw"},
	"ka":      {Code: "ka", Name: "Georgian", TranslateTag: "ka"},
	"kk":      {Code: "kk", Name: "Kazakh", TranslateTag: "kk"},
	"km":      {Code: "km", Name: "Khmer", TranslateTag: "km"},
	"kn":      {Code: "kn", Name: "Kannada", TranslateTag: "kn"},
	"ko":      {Code: "ko", Name: "Korean", TranslateTag: "ko"},
	"ky":      {Code: "ky", Name: "Kyrgyz", TranslateTag: "ky"},
	"lo":      {Code: "lo", Name: "Lao", TranslateTag: "lo"},
	"lt":      {Code: "lt", Name: "Lithuanian", TranslateTag: "lt"},
	"lv":      {Code: "lv", Name: "Latvian", TranslateTag: "lv"},
	"mk":      {Code: "mk", Name: "Macedonian", TranslateTag: "mk"},
	"ml":      {Code: "ml", Name: "Malayalam", TranslateTag: "ml"},
	"mn":      {Code: "mn", Name: "Mongolian", TranslateTag: "mn"},
	"mr":      {Code: "mr", Name: "Marathi", TranslateTag: "mr"},
	"ms":      {Code: "ms", Name: "Malay", TranslateTag: "ms"},
	"mt":      {Code: "mt", Name: "Maltese", TranslateTag: "mt"},
	"my":      {Code: "my", Name: "Myanmar (Burmese)", TranslateTag: "my"},
	"nb":      {Code: "nb", Name: "Norwegian Bokmål", TranslateTag: "no"},
	"ne":      {Code: "ne", Name: "Nepali", TranslateTag: "ne"},
	"nl":      {Code: "nl", Name: "Dutch", TranslateTag: "nl"},
	"no":      {Code: "no", Name: "Norwegian", TranslateTag: "no"},
	"or":      {Code: "or", Name: "Odia", TranslateTag: "or"},
	"pa":      {Code: "pa", Name: "Punjabi", TranslateTag: "pa"},
	"pl":      {Code: "pl", Name: "Polish", TranslateTag: "pl"},
	"ps":      {Code: "ps", Name: "Pashto", TranslateTag: "ps"},
	"pt":      {Code: "pt", Name: "Portuguese", TranslateTag: "pt"},
	"pt_BR":   {Code: "pt_BR", Name: "Portuguese (Brazil)", TranslateTag: "pt"},
	"pt_PT":   {Code: "pt_PT", Name: "Portuguese (Portugal)", TranslateTag: "pt-PT"},
	"ro":      {Code: "ro", Name: "Romanian", TranslateTag: "ro"},
	"ru":      {Code: "ru", Name: "Russian", TranslateTag: "ru"},
	"si":      {Code: "si", Name: "Sinhala", TranslateTag: "si"},
	"sk":      {Code: "sk", Name: "Slovak", TranslateTag: "sk"},
	"sl":      {Code: "sl", Name: "Slovenian", TranslateTag: "sl"},
	"so":      {Code: "so", Name: "Somali", TranslateTag: "so"},
	"sq":      {Code: "sq", Name: "Albanian", TranslateTag: "sq"},
	"sr":      {Code: "sr", Name: "Serbian", TranslateTag: "sr"},
	"sv":      {Code: "sv", Name: "Swedish", TranslateTag: "sv"},
	"sw":      {Code: "sw", Name: "Swahili", TranslateTag: "sw"},
	"ta":      {Code: "ta", Name: "Tamil", TranslateTag: "ta"},
	"te":      {Code: "te", Name: "Telugu", TranslateTag: "te"},
	"th":      {Code: "th", Name: "Thai", TranslateTag: "th"},
	"tr":      {Code: "tr", Name: "Turkish", TranslateTag: "tr"},
	"uk":      {Code: "uk", Name: "Ukrainian", TranslateTag: "uk"},
	"ur":      {Code: "ur", Name: "Urdu", TranslateTag: "ur"},
	"uz":      {Code: "uz", Name: "Uzbek", TranslateTag: "uz"},
	"vi":      {Code: "vi", Name: "Vietnamese", TranslateTag: "vi"},
	"xh":      {Code: "xh", Name: "Xhosa", TranslateTag: "xh"},
	"yo":      {Code: "yo", Name: "Yoruba", TranslateTag: "yo"},
	"zh":      {Code: "zh", Name: "Chinese", TranslateTag: "zh-CN"},
	"zh_CN":   {Code: "zh_CN", Name: "Chinese (Simplified)", TranslateTag: "zh-CN"},
	"zh_TW":   {Code: "zh_TW", Name: "Chinese (Traditional)", TranslateTag: "zh-TW"},
	"zh_Hans": {Code: "zh_Hans", Name: "Chinese (Simplified)", TranslateTag: "zh-CN"},
	"zh_Hant": {Code: "zh_Hant", Name: "Chinese (Traditional)", TranslateTag: "zh-TW"},
	"zu":      {Code: "zu", Name: "Zulu", TranslateTag: "zu"},
}

// canonicalize converts a loosely written code ("pt-br", "ZH_hant") into the
// ARB form: lowercase base, TitleCase script, uppercase region, joined by "_".
// Returns "" when the code is not a well-formed BCP 47 tag.
func canonicalize(code string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if normalized == "" {
		return ""
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return ""
	}
	base, script, region := tag.Raw()
	out := base.String()
	if s := script.String(); s != "Zzzz" {
		out += "_" + s
	}
	if r := region.String(); r != "ZZ" {
		out += "_" + r
	}
	return out
}

// Lookup resolves an ARB language code to its catalog entry.
func Lookup(code string) (Language, error) {
	if l, ok := Registry[code]; ok {
		return l, nil
	}
	if l, ok := Registry[canonicalize(code)]; ok {
		return l, nil
	}
	return Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
}

// MustLookup is Lookup for codes known to be in the catalog.
func MustLookup(code string) Language {
	l, err := Lookup(code)
	if err != nil {
		panic(err)
	}
	return l
}

// LookupAll resolves a list of codes, failing on the first unknown one.
func LookupAll(codes []string) ([]Language, error) {
	out := make([]Language, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		l, err := Lookup(c)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// All returns the catalog sorted by code.
func All() []Language {
	out := make([]Language, 0, len(Registry))
	for _, l := range Registry {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
