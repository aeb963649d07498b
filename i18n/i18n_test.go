package i18n

import "testing"

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetectLanguagePriorityAndNormalization(t *testing.T) {
	t.Run("LANGUAGE has highest priority", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "ru_RU.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		if got := detectLanguage(); got != "ru_RU" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "ru_RU")
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "fr_FR.UTF-8")

		if got := detectLanguage(); got != "fr_FR" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "fr_FR")
		}
	})

	t.Run("falls back to en", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := detectLanguage(); got != "en" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "en")
		}
	})
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}
	if got := N("%d file", "%d files", 1); got != "1 file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "1 file")
	}
	if got := N("%d file", "%d files", 2); got != "2 files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "2 files")
	}
	if got := Tf("Set %s", "x"); got != "Set x" {
		t.Fatalf("Tf fallback = %q", got)
	}
}

func TestKoreanCatalog(t *testing.T) {
	oldPo, oldLang := po, lang
	t.Cleanup(func() { po, lang = oldPo, oldLang })

	Init("ko")
	if Lang() != "ko" {
		t.Fatalf("Lang() = %q", Lang())
	}
	if got := T("Project"); got != "프로젝트" {
		t.Errorf("T(Project) = %q", got)
	}
	if got := N("%d key", "%d keys", 3); got != "키 3개" {
		t.Errorf("N = %q", got)
	}
	if got := Tf("Set arb.source_path in %s", ".arbkit.yaml"); got != ".arbkit.yaml에 arb.source_path를 설정하세요" {
		t.Errorf("Tf = %q", got)
	}
	if got := T("not in the catalog"); got != "not in the catalog" {
		t.Errorf("untranslated msgid = %q", got)
	}
}

func TestInitDetectsFromEnvironment(t *testing.T) {
	oldPo, oldLang := po, lang
	t.Cleanup(func() { po, lang = oldPo, oldLang })

	clearLocaleEnv(t)
	t.Setenv("LANG", "de_DE.UTF-8")
	Init("")
	if Lang() != "de_DE" {
		t.Fatalf("Lang() = %q, want de_DE", Lang())
	}
	if got := T("Project"); got != "Project" {
		t.Errorf("T without catalog = %q", got)
	}
}
