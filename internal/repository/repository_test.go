package repository

import "testing"

func TestListOptionsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{"zero value", ListOptions{}, ListOptions{Limit: DefaultListLimit}},
		{"negative limit", ListOptions{Limit: -5}, ListOptions{Limit: DefaultListLimit}},
		{"in range", ListOptions{Limit: 7, Offset: 14}, ListOptions{Limit: 7, Offset: 14}},
		{"at max", ListOptions{Limit: MaxListLimit}, ListOptions{Limit: MaxListLimit}},
		{"above max", ListOptions{Limit: MaxListLimit + 1}, ListOptions{Limit: MaxListLimit}},
		{"negative offset", ListOptions{Limit: 1, Offset: -3}, ListOptions{Limit: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
