package jwtware

import (
	"testing"
)

func TestGetExtractorsParsesLookupChain(t *testing.T) {
	extractors := GetExtractors("header:Authorization,cookie:jwt,query:auth_token,param:token")
	if len(extractors) != 4 {
		t.Fatalf("expected 4 extractors, got %d", len(extractors))
	}
}

func TestGetExtractorsTrimsWhitespace(t *testing.T) {
	extractors := GetExtractors(" header : Authorization , cookie : jwt ")
	if len(extractors) != 2 {
		t.Fatalf("expected 2 extractors, got %d", len(extractors))
	}
}

func TestGetExtractorsIgnoresUnknownSources(t *testing.T) {
	extractors := GetExtractors("body:token,header:Authorization")
	if len(extractors) != 1 {
		t.Fatalf("expected 1 extractor, got %d", len(extractors))
	}
}
