package main

import (
	"testing"

	"github.com/cloudbrowse/cloudbrowse/pkg/templating"
)

func TestReverse(t *testing.T) {
	tests := []struct {
		name    string
		route   string
		args    []string
		want    string
		wantErr bool
	}{
		{"MediaRoute", templating.MediaRouteName, []string{"css/cloud-browser.css"}, "/cb_media/css/cloud-browser.css", false},
		{"EscapesSegments", templating.MediaRouteName, []string{"img/my file.png"}, "/cb_media/img/my%20file.png", false},
		{"UnknownRoute", "no_such_route", []string{"x"}, "", true},
		{"TooFewArgs", templating.MediaRouteName, nil, "", true},
		{"TooManyArgs", templating.MediaRouteName, []string{"a", "b"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reverse(tt.route, tt.args...)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("reverse(%q, %v) succeeded, want error", tt.route, tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("reverse(%q, %v) failed: %v", tt.route, tt.args, err)
			}
			if got != tt.want {
				t.Errorf("reverse(%q, %v) = %q, want %q", tt.route, tt.args, got, tt.want)
			}
		})
	}
}
