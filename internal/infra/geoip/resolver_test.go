package geoip

import (
	"errors"
	"testing"
)

func TestNewResolverEmptyPath(t *testing.T) {
	resolver, err := NewResolver("  ")
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if resolver != nil {
		t.Fatal("resolver != nil, want disabled resolver for empty path")
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatal("NewResolver() error = nil, want open failure")
	}
}

func TestCountryCodeNilResolver(t *testing.T) {
	var resolver *Resolver
	if _, err := resolver.CountryCode("203.0.113.7"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("CountryCode() error = %v, want ErrUnavailable", err)
	}
}
