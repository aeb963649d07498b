package codec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncode_Empty(t *testing.T) {
	encoded, dict, n := Encode("", Options{Alphabet: EmojiAlphabet, EncodeParams: true})
	if encoded != "" || len(dict) != 0 || n != 0 {
		t.Fatalf("Encode(\"\") = %q, %v, %d", encoded, dict, n)
	}
}

func TestEncode_PlaceholdersRoundTrip(t *testing.T) {
	text := "Hi {name},\nyou have {count} messages, {name}!"
	encoded, dict, n := Encode(text, Options{Alphabet: EmojiAlphabet, EncodeParams: true})

	if strings.Contains(encoded, "{") || strings.Contains(encoded, "\n") {
		t.Errorf("placeholders or line breaks left in %q", encoded)
	}
	// One line break plus two distinct placeholders.
	if len(dict) != 3 {
		t.Errorf("dictionary size = %d, want 3: %v", len(dict), dict)
	}
	if n != 4 {
		t.Errorf("matches = %d, want 4", n)
	}
	if got := Decode(encoded, dict); got != text {
		t.Errorf("Decode = %q, want %q", got, text)
	}
}

func TestEncode_ParamsDisabled(t *testing.T) {
	encoded, dict, _ := Encode("Hi {name}", Options{Alphabet: EmojiAlphabet})
	if encoded != "Hi {name}" || len(dict) != 0 {
		t.Errorf("got %q, %v", encoded, dict)
	}
}

func TestEncode_PassOrder(t *testing.T) {
	// The keyword inside the placeholder is already shielded by the
	// placeholder pass and must not be matched again.
	exclude, err := CompileExclusions([]string{"pro"})
	if err != nil {
		t.Fatal(err)
	}
	text := "Get {proName} PRO now"
	encoded, dict, n := Encode(text, Options{Alphabet: EmojiAlphabet, EncodeParams: true, Exclude: exclude})

	want := "Get " + EmojiAlphabet[0] + " " + EmojiAlphabet[1] + " now"
	if encoded != want {
		t.Errorf("encoded = %q, want %q", encoded, want)
	}
	wantDict := Dictionary{EmojiAlphabet[0]: "{proName}", EmojiAlphabet[1]: "PRO"}
	if diff := cmp.Diff(wantDict, dict); diff != "" {
		t.Errorf("dictionary mismatch (-want +got):\n%s", diff)
	}
	if n != 2 {
		t.Errorf("matches = %d, want 2", n)
	}
}

func TestEncode_ExclusionSkipsKeycapTokens(t *testing.T) {
	// Keycap tokens begin with an ASCII digit; a digit pattern must not
	// re-encode the token the line-break pass placed.
	exclude, err := CompileExclusions([]string{`\d+`})
	if err != nil {
		t.Fatal(err)
	}
	text := "Line one\nCall 555 or {n0}"
	encoded, dict, n := Encode(text, Options{Alphabet: KeycapAlphabet, EncodeParams: true, Exclude: exclude})

	wantDict := Dictionary{KeycapAlphabet[0]: "\n", KeycapAlphabet[1]: "{n0}", KeycapAlphabet[2]: "555"}
	if diff := cmp.Diff(wantDict, dict); diff != "" {
		t.Errorf("dictionary mismatch (-want +got):\n%s", diff)
	}
	if n != 3 {
		t.Errorf("matches = %d, want 3", n)
	}
	if got := Decode(encoded, dict); got != text {
		t.Errorf("round trip failed:\n got %q\nwant %q", got, text)
	}
}

func TestEncode_ExclusionSkipsComposedTokens(t *testing.T) {
	exclude, err := CompileExclusions([]string{`\d`, `_`})
	if err != nil {
		t.Fatal(err)
	}
	var parts []string
	for i := 0; i < len(KeycapAlphabet)+2; i++ {
		parts = append(parts, fmt.Sprintf("{p%c}", 'a'+i))
	}
	text := strings.Join(parts, " ") + " 7_x"
	encoded, dict, _ := Encode(text, Options{Alphabet: KeycapAlphabet, EncodeParams: true, Exclude: exclude})
	if got := Decode(encoded, dict); got != text {
		t.Errorf("round trip failed:\n got %q\nwant %q", got, text)
	}
	if dict[KeycapAlphabet.Token(len(parts))] != "7" {
		t.Errorf("digit outside tokens not shielded: %v", dict)
	}
}

func TestEncode_ExclusionsCaseInsensitive(t *testing.T) {
	exclude, err := CompileExclusions([]string{"Flutter", ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(exclude) != 1 {
		t.Fatalf("empty pattern should be dropped, got %d patterns", len(exclude))
	}
	encoded, dict, n := Encode("FLUTTER and flutter", Options{Alphabet: EmojiAlphabet, Exclude: exclude})
	if n != 2 {
		t.Errorf("matches = %d, want 2", n)
	}
	// Each distinct spelling gets its own token so decoding restores case.
	if len(dict) != 2 {
		t.Errorf("dictionary = %v", dict)
	}
	if got := Decode(encoded, dict); got != "FLUTTER and flutter" {
		t.Errorf("Decode = %q", got)
	}
}

func TestCompileExclusions_Invalid(t *testing.T) {
	if _, err := CompileExclusions([]string{"("}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestEncode_ReusesTokens(t *testing.T) {
	encoded, dict, n := Encode("{a} {a} {a}", Options{Alphabet: KeycapAlphabet, EncodeParams: true})
	tok := KeycapAlphabet[0]
	if encoded != tok+" "+tok+" "+tok {
		t.Errorf("encoded = %q", encoded)
	}
	if len(dict) != 1 || n != 3 {
		t.Errorf("dict = %v, matches = %d", dict, n)
	}
}

func TestEncode_IdentityStrategy(t *testing.T) {
	encoded, dict, n := Encode("a\nb {x}", Options{EncodeParams: true})
	if encoded != "a\nb {x}" {
		t.Errorf("identity strategy changed text: %q", encoded)
	}
	want := Dictionary{"\n": "\n", "{x}": "{x}"}
	if diff := cmp.Diff(want, dict); diff != "" {
		t.Errorf("dictionary mismatch (-want +got):\n%s", diff)
	}
	if n != 2 {
		t.Errorf("matches = %d", n)
	}
}

func TestAlphabetToken(t *testing.T) {
	a := Alphabet{"a", "b", "c"}
	cases := map[int]string{0: "a", 2: "c", 3: "b_a", 8: "c_c", 9: "b_a_a", 10: "b_a_b"}
	for n, want := range cases {
		if got := a.Token(n); got != want {
			t.Errorf("Token(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestEncode_AlphabetExhaustion(t *testing.T) {
	var parts []string
	for i := 0; i < len(EmojiAlphabet)+5; i++ {
		parts = append(parts, fmt.Sprintf("{p%d}", i))
	}
	text := strings.Join(parts, " ")

	encoded, dict, _ := Encode(text, Options{Alphabet: EmojiAlphabet, EncodeParams: true})
	if len(dict) != len(parts) {
		t.Fatalf("dictionary size = %d, want %d", len(dict), len(parts))
	}
	seen := make(map[string]bool)
	composed := 0
	for token, original := range dict {
		if seen[original] {
			t.Errorf("original %q has two tokens", original)
		}
		seen[original] = true
		if strings.Contains(token, "_") {
			composed++
		}
	}
	if composed != 5 {
		t.Errorf("composed tokens = %d, want 5", composed)
	}
	if got := Decode(encoded, dict); got != text {
		t.Errorf("round trip failed:\n got %q\nwant %q", got, text)
	}
}

func TestDecode_EntitiesAndPunctuation(t *testing.T) {
	got := Decode("l&#39;app （beta）！ Ready？ &amp;", nil)
	want := "l'app (beta)! Ready? &"
	if got != want {
		t.Errorf("Decode = %q, want %q", got, want)
	}
}

func TestSurvivors(t *testing.T) {
	dict := Dictionary{"🍈": "{a}", "🍈_🍇": "{b}"}
	if got := Survivors("🍈 and 🍈_🍇", dict); got != 2 {
		t.Errorf("Survivors = %d, want 2", got)
	}
	if got := Survivors("nothing", dict); got != 0 {
		t.Errorf("Survivors = %d, want 0", got)
	}
}

func TestSelect(t *testing.T) {
	cases := []struct {
		name        string
		attempts    []Attempt
		wantName    string
		wantPerfect bool
	}{
		{
			name:     "empty",
			attempts: nil,
		},
		{
			name: "first perfect wins",
			attempts: []Attempt{
				{Strategy: "emoji", Matches: 2, Survived: 1},
				{Strategy: "keycap", Matches: 2, Survived: 2},
				{Strategy: "plain", Matches: 2, Survived: 2},
			},
			wantName:    "keycap",
			wantPerfect: true,
		},
		{
			name: "most survivors",
			attempts: []Attempt{
				{Strategy: "emoji", Matches: 3, Survived: 0},
				{Strategy: "keycap", Matches: 3, Survived: 2},
				{Strategy: "plain", Matches: 3, Survived: 1},
			},
			wantName: "keycap",
		},
		{
			name: "tie keeps earliest",
			attempts: []Attempt{
				{Strategy: "emoji", Matches: 3, Survived: 1},
				{Strategy: "keycap", Matches: 3, Survived: 1},
			},
			wantName: "emoji",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, perfect := Select(tc.attempts)
			if got.Strategy != tc.wantName || perfect != tc.wantPerfect {
				t.Fatalf("Select = %q/%v, want %q/%v", got.Strategy, perfect, tc.wantName, tc.wantPerfect)
			}
		})
	}
}

func stripEmoji(s string) string {
	for _, tok := range EmojiAlphabet {
		s = strings.ReplaceAll(s, tok, "")
	}
	return s
}

func TestRun_FallsBackToNextStrategy(t *testing.T) {
	calls := 0
	fn := func(_ context.Context, encoded string) (string, error) {
		calls++
		return stripEmoji(encoded), nil
	}

	res, err := Run(context.Background(), "Hello {name}", Strategies, Options{EncodeParams: true}, fn)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Perfect || res.Best.Strategy != "keycap" {
		t.Errorf("result = %+v", res)
	}
	if calls != 2 || res.Attempts != 2 {
		t.Errorf("calls = %d, attempts = %d, want 2", calls, res.Attempts)
	}
	if res.Text != "Hello {name}" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestRun_StopsAtFirstPerfect(t *testing.T) {
	calls := 0
	fn := func(_ context.Context, encoded string) (string, error) {
		calls++
		return encoded, nil
	}
	res, err := Run(context.Background(), "a\nb", Strategies, Options{}, fn)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || !res.Perfect || res.Text != "a\nb" {
		t.Errorf("calls = %d, result = %+v", calls, res)
	}
}

func TestRun_BestEffort(t *testing.T) {
	fn := func(_ context.Context, _ string) (string, error) {
		return "garbled", nil
	}
	res, err := Run(context.Background(), "x {y}", Strategies, Options{EncodeParams: true}, fn)
	if err != nil {
		t.Fatal(err)
	}
	if res.Perfect {
		t.Error("result should not be perfect")
	}
	if res.Attempts != len(Strategies) {
		t.Errorf("attempts = %d, want %d", res.Attempts, len(Strategies))
	}
	if res.Best.Strategy != "emoji" || res.Text != "garbled" {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_ProviderError(t *testing.T) {
	boom := errors.New("boom")
	fn := func(_ context.Context, _ string) (string, error) {
		return "", boom
	}
	if _, err := Run(context.Background(), "x", Strategies, Options{}, fn); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
