// Package normalizers provides field normalization functions for duplicate matching
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// Names of the built-in normalizers
const (
	Name    = "nname"
	Phone   = "nphone"
	TaxID   = "ntaxid"
	Email   = "nemail"
	Digits  = "digits_only"
	Lower   = "lowercase"
	Trimmed = "trim"
)

// CountryCallingCode is the prefix dropped from phone numbers that carry it
const CountryCallingCode = "55"

// NationalNumberLengths are the digit counts of a national phone number (landline, mobile)
var NationalNumberLengths = []int{10, 11}

// nameStopWords are prepositions and articles ignored when comparing names
var nameStopWords = map[string]struct{}{
	"de":  {},
	"da":  {},
	"do":  {},
	"das": {},
	"dos": {},
	"e":   {},
}

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register(Lower, Lowercase)
	Register(Trimmed, Trim)
	Register(Digits, DigitsOnly)
	Register(Name, NormalizeName)
	Register(Phone, NormalizePhone)
	Register(TaxID, NormalizeTaxID)
	Register(Email, NormalizeEmail)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// StripDiacritics removes combining marks, so "João" becomes "Joao"
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName normalizes a person's name for matching
// - Lowercase
// - Strip diacritics
// - Drop anything that is not a letter, digit or whitespace
// - Remove stop words (de, da, do, das, dos, e)
// - Collapse whitespace
func NormalizeName(s string) string {
	s = StripDiacritics(strings.ToLower(s))

	var cleaned strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cleaned.WriteRune(r)
		case unicode.IsSpace(r):
			cleaned.WriteRune(' ')
		}
	}

	words := strings.Fields(cleaned.String())
	kept := words[:0]
	for _, w := range words {
		if _, stop := nameStopWords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}

	return strings.Join(kept, " ")
}

// NormalizePhone keeps the digits of a phone number and drops the default country calling code
func NormalizePhone(s string) string {
	return NormalizePhoneWith(s, CountryCallingCode, NationalNumberLengths...)
}

// NormalizePhoneWith keeps the digits of a phone number. When the digits start with
// countryCode and the remainder has one of the national lengths, the prefix is dropped.
func NormalizePhoneWith(s string, countryCode string, nationalLengths ...int) string {
	digits := DigitsOnly(s)
	if countryCode == "" || !strings.HasPrefix(digits, countryCode) {
		return digits
	}

	rest := len(digits) - len(countryCode)
	for _, l := range nationalLengths {
		if rest == l {
			return digits[len(countryCode):]
		}
	}
	return digits
}

// NormalizeTaxID keeps only the digits of a tax identifier (CPF/CNPJ)
func NormalizeTaxID(s string) string {
	return DigitsOnly(s)
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
