package utils

import (
	"regexp"
	"strings"
)

var e164Regex = regexp.MustCompile(`^\+[1-9]\d{7,14}$`) // ITU-T E.164

// IsE164 reports basic E.164 compliance
func IsE164(number string) bool { return e164Regex.MatchString(number) }

var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")

// PhoneVariants holds the three canonical spellings of a Kenyan number.
//
//	Local          0712345678
//	International  254712345678
//	Bare           712345678
//
// Fields are empty when the input cannot be reduced to a subscriber number.
type PhoneVariants struct {
	Local         string
	International string
	Bare          string
}

// NormalizeKenyanPhone reduces any accepted spelling of a number to the local
// 0XXXXXXXXX form. Inputs that do not look Kenyan are returned stripped of
// formatting noise but otherwise unchanged, so exact comparisons still work.
func NormalizeKenyanPhone(raw string) string {
	p := phoneNoise.Replace(strings.TrimSpace(raw))
	p = strings.TrimPrefix(p, "+")
	if p == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(p, KenyaCountryCode) && len(p) == len(KenyaCountryCode)+KenyaSubscriberDigits:
		return "0" + p[len(KenyaCountryCode):]
	case len(p) == KenyaSubscriberDigits && (p[0] == '7' || p[0] == '1'):
		return "0" + p
	}
	return p
}

// PhoneVariantsOf normalizes raw and derives every spelling used for matching.
func PhoneVariantsOf(raw string) PhoneVariants {
	local := NormalizeKenyanPhone(raw)
	if len(local) != KenyaSubscriberDigits+1 || local[0] != '0' || !isDigits(local) {
		return PhoneVariants{Local: local}
	}
	bare := local[1:]
	return PhoneVariants{
		Local:         local,
		International: KenyaCountryCode + bare,
		Bare:          bare,
	}
}

// All returns the non-empty variants without duplicates.
func (v PhoneVariants) All() []string {
	out := make([]string, 0, 3)
	for _, s := range []string{v.Local, v.International, v.Bare} {
		if s == "" {
			continue
		}
		dup := false
		for _, o := range out {
			if o == s {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, s)
		}
	}
	return out
}

// Overlaps reports whether any spelling of v equals any spelling of other.
func (v PhoneVariants) Overlaps(other PhoneVariants) bool {
	for _, a := range v.All() {
		for _, b := range other.All() {
			if a == b {
				return true
			}
		}
	}
	return false
}

// ToKenyanE164 converts a stored phone into the +254 form SMS gateways expect.
// It returns ErrInvalidPhone when the number cannot be expressed that way.
func ToKenyanE164(raw string) (string, error) {
	v := PhoneVariantsOf(raw)
	if v.International == "" {
		if IsE164(raw) {
			return raw, nil
		}
		return "", ErrInvalidPhone
	}
	return "+" + v.International, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
