package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

var supportedLocales = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Locale detects the caller's locale for localized remediation hints. The
// X-Locale header wins, then Accept-Language, then a GeoIP country guess.
func Locale(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := resolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), localeContextKey{}, locale)
			if country != "" {
				ctx = context.WithValue(ctx, countryContextKey{}, strings.ToUpper(country))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the detected locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeContextKey{}).(string); ok && v != "" {
		return v
	}
	return "en"
}

// CountryFromContext returns the resolved ISO country code, if any.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryContextKey{}).(string); ok {
		return v
	}
	return ""
}

func detectLocale(r *http.Request, fallback, country string) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		return normalizeLocale(v)
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		if tag, _, err := language.ParseAcceptLanguage(header); err == nil && len(tag) > 0 {
			matched, _, conf := localeMatcher.Match(tag...)
			if conf > language.No {
				base, _ := matched.Base()
				return base.String()
			}
		}
	}
	if locale := localeForCountry(country); locale != "" {
		return locale
	}
	if fallback != "" {
		return normalizeLocale(fallback)
	}
	return "en"
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(locale, "es"):
		return "es"
	case strings.HasPrefix(locale, "fr"):
		return "fr"
	default:
		return "en"
	}
}

func localeForCountry(country string) string {
	switch strings.ToUpper(country) {
	case "ES", "MX", "AR", "CO", "CL", "PE":
		return "es"
	case "FR", "BE", "SN", "CI":
		return "fr"
	case "":
		return ""
	default:
		return "en"
	}
}

func resolveCountry(r *http.Request, lookup CountryLookup) string {
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return country
}
